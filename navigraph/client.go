// Package navigraph implements the chart-access core of the EFB panel: the
// OAuth2 device-authorization state machine against the Navigraph identity
// service and the signed-URL chart catalog client built on top of it.
//
// The package follows the panel's availability-first contract: none of the
// Client's methods surface errors to the UI. Failed authentication steps are
// retried by the caller's poll loop and failed chart reads collapse to empty
// results. Internally every failure is a typed error so logs and tests can
// tell configuration, transport, and decode problems apart.
package navigraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-navigraph-efb/charts"
	"github.com/jrsteele09/go-navigraph-efb/credentials"
	"github.com/jrsteele09/go-navigraph-efb/internal/config"
	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

const (
	signedURLPathFormat   = "/2/airports/%s/signedurls/%s"
	subscriptionValidPath = "/2/subscriptions/valid"
)

// Client is the single object the panel holds. It composes the
// authenticator and the catalog client and publishes the polling-friendly
// surface the widgets consume. It is constructed explicitly with injected
// configuration rather than held as ambient state, and one instance is
// shared across UI re-renders by its owner.
type Client struct {
	config     config.Config
	auth       *Authenticator
	catalog    *charts.Catalog
	httpClient *http.Client
}

var _ charts.URLResolver = (*Client)(nil)

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithClientHTTPClient sets the client used for all provider calls.
func WithClientHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg config.Config, store credentials.Repo, options ...ClientOption) *Client {
	client := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.GetHTTPTimeout()},
	}
	for _, opt := range options {
		opt(client)
	}
	client.auth = NewAuthenticator(cfg, store, WithHTTPClient(client.httpClient))
	client.catalog = charts.NewCatalog(client, charts.WithCatalogHTTPClient(client.httpClient))
	return client
}

// SufficientEnv reports whether the provider credentials are configured.
// The panel checks this before attempting any flow and renders a "not
// configured" message otherwise.
func (c *Client) SufficientEnv() bool {
	return c.config.HasCredentials()
}

// Initialize takes the first authentication step; see Authenticator.Initialize.
func (c *Client) Initialize(ctx context.Context) State {
	return c.auth.Initialize(ctx)
}

// Advance performs the next authentication step; see Authenticator.Advance.
func (c *Client) Advance(ctx context.Context) State {
	return c.auth.Advance(ctx)
}

func (c *Client) HasToken() bool {
	return c.auth.HasToken()
}

func (c *Client) AuthCode() string {
	return c.auth.AuthCode()
}

func (c *Client) AuthQRLink() string {
	return c.auth.AuthQRLink()
}

func (c *Client) AuthInterval() int {
	return c.auth.AuthInterval()
}

// IDToken returns the OpenID Connect ID token from the last grant, if any.
func (c *Client) IDToken() string {
	return c.auth.IDToken()
}

// ResolveSignedURL resolves a provider item path (the chart index or an
// individual chart image) to a short-lived signed URL. Signed URLs are
// never cached: each chart open resolves afresh.
func (c *Client) ResolveSignedURL(ctx context.Context, icao, item string) (string, error) {
	token := c.auth.AccessToken()
	if token == "" {
		return "", errors.ErrNoAccessToken
	}

	endpoint := c.config.GetChartsBaseURL() + fmt.Sprintf(signedURLPathFormat, icao, item)
	body, err := c.bearerGet(ctx, token, endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "[ResolveSignedURL] %s/%s", icao, item)
	}
	return string(body), nil
}

// FetchCatalog returns the airport's charts partitioned by category. It
// never fails from the panel's point of view: unauthenticated sessions and
// fetch errors alike yield empty buckets.
func (c *Client) FetchCatalog(ctx context.Context, icao string) charts.AirportCharts {
	return c.catalog.Fetch(ctx, icao)
}

// ChartImageURL resolves the signed URL of a chart's image, choosing the
// night variant when asked and one exists.
func (c *Client) ChartImageURL(ctx context.Context, icao string, chart charts.Chart, night bool) (string, error) {
	item := chart.FileDay
	if night && chart.FileNight != "" {
		item = chart.FileNight
	}
	return c.ResolveSignedURL(ctx, icao, item)
}

// SubscriptionStatus returns the name of the active charts subscription.
// Both "not authenticated" and "no active subscription" produce the empty
// string; the panel treats them the same.
func (c *Client) SubscriptionStatus(ctx context.Context) string {
	name, err := c.subscriptionStatus(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("subscription status unavailable")
		return ""
	}
	return name
}

func (c *Client) subscriptionStatus(ctx context.Context) (string, error) {
	token := c.auth.AccessToken()
	if token == "" {
		return "", errors.ErrNoAccessToken
	}

	endpoint := c.config.GetSubscriptionsBaseURL() + subscriptionValidPath
	body, err := c.bearerGet(ctx, token, endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "[subscriptionStatus] query")
	}

	var sub subscriptionResponse
	if err := json.Unmarshal(body, &sub); err != nil {
		return "", errors.Wrapf(errors.ErrDecode, "[subscriptionStatus] %v", err)
	}
	return sub.SubscriptionName, nil
}

// bearerGet performs an authenticated GET through an oauth2 token-source
// transport and returns the response body.
func (c *Client) bearerGet(ctx context.Context, token, endpoint string) ([]byte, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := authed.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(errors.ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
