package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-navigraph-efb/internal/config"
)

func TestHasCredentials(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		want         bool
	}{
		{name: "both set", clientID: "id", clientSecret: "secret", want: true},
		{name: "missing secret", clientID: "id", want: false},
		{name: "missing id", clientSecret: "secret", want: false},
		{name: "neither set", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CLIENT_ID", tc.clientID)
			t.Setenv("CLIENT_SECRET", tc.clientSecret)

			require.Equal(t, tc.want, config.New().HasCredentials())
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("NAVIGRAPH_IDENTITY_URL", "")
	t.Setenv("NAVIGRAPH_CHARTS_URL", "")
	t.Setenv("NAVIGRAPH_SUBSCRIPTIONS_URL", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("FOLDER", "")
	t.Setenv("ENV", "")

	cfg := config.New()
	require.Equal(t, "https://identity.api.navigraph.com", cfg.GetIdentityBaseURL())
	require.Equal(t, "https://charts.api.navigraph.com", cfg.GetChartsBaseURL())
	require.Equal(t, "https://subscriptions.api.navigraph.com", cfg.GetSubscriptionsBaseURL())
	require.Equal(t, "Navigraph EFB", cfg.GetAppName())
	require.Equal(t, "./data", cfg.GetDataFolder())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.Equal(t, 30*time.Second, cfg.GetHTTPTimeout())
}

func TestEndpointOverrides(t *testing.T) {
	t.Setenv("NAVIGRAPH_IDENTITY_URL", "http://localhost:9001")
	t.Setenv("NAVIGRAPH_CHARTS_URL", "http://localhost:9002")
	t.Setenv("NAVIGRAPH_SUBSCRIPTIONS_URL", "http://localhost:9003")

	cfg := config.New()
	require.Equal(t, "http://localhost:9001", cfg.GetIdentityBaseURL())
	require.Equal(t, "http://localhost:9002", cfg.GetChartsBaseURL())
	require.Equal(t, "http://localhost:9003", cfg.GetSubscriptionsBaseURL())
}
