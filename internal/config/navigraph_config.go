package config

import "time"

// NavigraphConfig exposes the provider credentials and endpoint roots.
// The client ID and secret are issued by Navigraph per add-on; without both
// the whole charts subsystem stays inert.
type NavigraphConfig interface {
	GetClientID() string
	GetClientSecret() string
	HasCredentials() bool
	GetIdentityBaseURL() string
	GetChartsBaseURL() string
	GetSubscriptionsBaseURL() string
	GetHTTPTimeout() time.Duration
}

const (
	clientIDVar     = "CLIENT_ID"
	clientSecretVar = "CLIENT_SECRET"

	identityURLVar      = "NAVIGRAPH_IDENTITY_URL"
	chartsURLVar        = "NAVIGRAPH_CHARTS_URL"
	subscriptionsURLVar = "NAVIGRAPH_SUBSCRIPTIONS_URL"
)

type Navigraph struct{}

var _ NavigraphConfig = Navigraph{}

func (Navigraph) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

func (Navigraph) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

// HasCredentials reports whether both provider secrets are configured.
func (n Navigraph) HasCredentials() bool {
	return n.GetClientID() != "" && n.GetClientSecret() != ""
}

func (Navigraph) GetIdentityBaseURL() string {
	return GetEnv(identityURLVar, "https://identity.api.navigraph.com")
}

func (Navigraph) GetChartsBaseURL() string {
	return GetEnv(chartsURLVar, "https://charts.api.navigraph.com")
}

func (Navigraph) GetSubscriptionsBaseURL() string {
	return GetEnv(subscriptionsURLVar, "https://subscriptions.api.navigraph.com")
}

func (Navigraph) GetHTTPTimeout() time.Duration {
	return 30 * time.Second
}
