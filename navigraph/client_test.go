package navigraph_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-navigraph-efb/credentials/repofake"
	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
	"github.com/jrsteele09/go-navigraph-efb/navigraph"
)

// chartsServer fakes the charts API: signed-URL resolution plus the
// pre-signed index and image downloads it points at.
type chartsServer struct {
	*httptest.Server

	indexPayload string
	resolveCalls int32
	lastBearer   atomic.Value
}

func newChartsServer(t *testing.T, indexPayload string) *chartsServer {
	t.Helper()

	cs := &chartsServer{indexPayload: indexPayload}

	mux := http.NewServeMux()
	mux.HandleFunc("/2/airports/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cs.resolveCalls, 1)
		cs.lastBearer.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer at1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// Response body is the signed URL itself.
		fmt.Fprintf(w, "%s/signed%s", cs.Server.URL, r.URL.Path)
	})
	mux.HandleFunc("/signed/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(cs.indexPayload))
	})
	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func chartEntry(id, category string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"file_name": "%s.png",
		"file_day": "%s_D.png",
		"file_night": "%s_N.png",
		"icao_airport_identifier": "KLAX",
		"procedure_identifier": "PROC-%s",
		"type": {"code": "01", "category": %q}
	}`, id, id, id, id, id, category)
}

// authenticatedClient builds a facade holding a live access token by
// running the refresh grant against the fake identity service.
func authenticatedClient(t *testing.T, cfg testConfig) *navigraph.Client {
	t.Helper()

	client := navigraph.NewClient(cfg, repofake.NewFakeCredentialsRepoWithToken("rt-old"))
	client.Initialize(context.Background())
	require.True(t, client.HasToken())
	return client
}

func TestResolveSignedURLWithoutToken(t *testing.T) {
	is := newIdentityServer(t)
	cs := newChartsServer(t, "{}")
	cfg := newTestConfig(is)
	cfg.chartsURL = cs.URL

	client := navigraph.NewClient(cfg, repofake.NewFakeCredentialsRepo())

	_, err := client.ResolveSignedURL(context.Background(), "KLAX", "charts.json")
	require.ErrorIs(t, err, errors.ErrNoAccessToken)
	require.Equal(t, int32(0), atomic.LoadInt32(&cs.resolveCalls), "no HTTP call without a token")
}

func TestResolveSignedURL(t *testing.T) {
	is := newIdentityServer(t)
	cs := newChartsServer(t, "{}")
	cfg := newTestConfig(is)
	cfg.chartsURL = cs.URL

	client := authenticatedClient(t, cfg)

	signed, err := client.ResolveSignedURL(context.Background(), "KLAX", "chart1_D.png")
	require.NoError(t, err)
	require.Equal(t, cs.URL+"/signed/2/airports/KLAX/signedurls/chart1_D.png", signed)
	require.Equal(t, "Bearer at1", cs.lastBearer.Load())
}

func TestFetchCatalog(t *testing.T) {
	payload := fmt.Sprintf(`{"charts":[%s,%s,%s,%s,%s]}`,
		chartEntry("arr", "ARRIVAL"),
		chartEntry("dep", "DEPARTURE"),
		chartEntry("apt", "AIRPORT"),
		chartEntry("app", "APPROACH"),
		chartEntry("unk", "UNKNOWN"),
	)

	is := newIdentityServer(t)
	cs := newChartsServer(t, payload)
	cfg := newTestConfig(is)
	cfg.chartsURL = cs.URL

	client := authenticatedClient(t, cfg)

	ac := client.FetchCatalog(context.Background(), "KLAX")
	require.Equal(t, 4, ac.Total(), "the UNKNOWN category chart is dropped")
	require.Len(t, ac.Arrival, 1)
	require.Len(t, ac.Departure, 1)
	require.Len(t, ac.Airport, 1)
	require.Len(t, ac.Approach, 1)
}

func TestFetchCatalogWithoutToken(t *testing.T) {
	is := newIdentityServer(t)
	cs := newChartsServer(t, "{}")
	cfg := newTestConfig(is)
	cfg.chartsURL = cs.URL

	client := navigraph.NewClient(cfg, repofake.NewFakeCredentialsRepo())

	ac := client.FetchCatalog(context.Background(), "KLAX")
	require.Equal(t, 0, ac.Total())
	require.Equal(t, int32(0), atomic.LoadInt32(&cs.resolveCalls))
}

func TestChartImageURL(t *testing.T) {
	is := newIdentityServer(t)
	cs := newChartsServer(t, fmt.Sprintf(`{"charts":[%s]}`, chartEntry("c1", "APPROACH")))
	cfg := newTestConfig(is)
	cfg.chartsURL = cs.URL

	client := authenticatedClient(t, cfg)

	ac := client.FetchCatalog(context.Background(), "KLAX")
	require.Len(t, ac.Approach, 1)
	chart := ac.Approach[0]

	day, err := client.ChartImageURL(context.Background(), "KLAX", chart, false)
	require.NoError(t, err)
	require.Contains(t, day, "c1_D.png")

	night, err := client.ChartImageURL(context.Background(), "KLAX", chart, true)
	require.NoError(t, err)
	require.Contains(t, night, "c1_N.png")
}

func TestSubscriptionStatus(t *testing.T) {
	is := newIdentityServer(t)

	var active atomic.Bool
	active.Store(true)
	subs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !active.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"subscription_name": "Navigraph Ultimate"})
	}))
	defer subs.Close()

	cfg := newTestConfig(is)
	cfg.subscriptionsURL = subs.URL

	// Unauthenticated and no-subscription are indistinguishable: both empty.
	unauthenticated := navigraph.NewClient(cfg, repofake.NewFakeCredentialsRepo())
	require.Empty(t, unauthenticated.SubscriptionStatus(context.Background()))

	client := authenticatedClient(t, cfg)
	require.Equal(t, "Navigraph Ultimate", client.SubscriptionStatus(context.Background()))

	active.Store(false)
	require.Empty(t, client.SubscriptionStatus(context.Background()))
}

func TestTokenSummary(t *testing.T) {
	is := newIdentityServer(t)

	claims := jwt.RegisteredClaims{
		Subject:   "pilot-1",
		ExpiresAt: jwt.NewNumericDate(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	is.lock.Lock()
	is.accessToken = signed
	is.lock.Unlock()

	client := navigraph.NewClient(newTestConfig(is), repofake.NewFakeCredentialsRepoWithToken("rt-old"))
	client.Initialize(context.Background())
	require.True(t, client.HasToken())

	summary, err := client.TokenSummary()
	require.NoError(t, err)
	require.Equal(t, "pilot-1", summary.Subject)
	require.Equal(t, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), summary.ExpiresAt)
}

func TestTokenSummaryWithoutToken(t *testing.T) {
	is := newIdentityServer(t)
	client := navigraph.NewClient(newTestConfig(is), repofake.NewFakeCredentialsRepo())

	_, err := client.TokenSummary()
	require.ErrorIs(t, err, errors.ErrNoAccessToken)
}
