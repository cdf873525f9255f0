package navigraph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-navigraph-efb/credentials"
	"github.com/jrsteele09/go-navigraph-efb/internal/config"
	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

const (
	deviceAuthorizationPath = "/connect/deviceauthorization"
	tokenPath               = "/connect/token/"

	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"
	tokenScope      = "openid charts offline_access"

	// defaultAuthInterval is the poll cadence in seconds when the provider
	// omits one from the device-authorization response.
	defaultAuthInterval = 5
)

// Provider error codes during device-flow polling (RFC 8628 §3.5).
const (
	oauthErrAuthorizationPending = "authorization_pending"
	oauthErrSlowDown             = "slow_down"
	oauthErrAccessDenied         = "access_denied"
	oauthErrExpiredToken         = "expired_token"
)

// Authenticator runs the device-authorization handshake and token
// acquisition/refresh against the Navigraph identity service. It performs
// no polling of its own: the owner calls Advance at AuthInterval cadence
// from whatever scheduler it has.
type Authenticator struct {
	config     config.Config
	store      credentials.Repo
	httpClient *http.Client

	lock         sync.Mutex
	state        State
	session      *DeviceSession
	tokens       TokenPair
	idToken      string
	attemptID    string // correlates one device-flow attempt in logs
	authInterval int
}

// AuthenticatorOption modifies an Authenticator instance.
type AuthenticatorOption func(*Authenticator)

// WithHTTPClient sets the client used for identity-service calls.
func WithHTTPClient(client *http.Client) AuthenticatorOption {
	return func(a *Authenticator) {
		a.httpClient = client
	}
}

func NewAuthenticator(cfg config.Config, store credentials.Repo, options ...AuthenticatorOption) *Authenticator {
	auth := &Authenticator{
		config:       cfg,
		store:        store,
		httpClient:   &http.Client{Timeout: cfg.GetHTTPTimeout()},
		state:        StateUninitialized,
		authInterval: defaultAuthInterval,
	}
	for _, opt := range options {
		opt(auth)
	}
	return auth
}

// Initialize loads any stored refresh token and takes the first
// authentication step: the refresh grant when a token was found, otherwise
// a new device authorization. Without configured credentials it is a no-op
// and the state stays uninitialized.
func (a *Authenticator) Initialize(ctx context.Context) State {
	a.lock.Lock()
	defer a.lock.Unlock()

	if !a.config.HasCredentials() {
		log.Debug().Msg("navigraph credentials not configured, staying inert")
		return a.state
	}

	a.state = StateAuthenticating

	if token, err := a.store.Load(); err == nil {
		a.tokens.RefreshToken = token
		if err := a.refresh(ctx); err != nil {
			log.Debug().Err(err).Msg("stored refresh token rejected")
		}
		return a.state
	}

	if err := a.beginDeviceAuthorization(ctx); err != nil {
		log.Debug().Err(err).Msg("device authorization request failed")
	}
	return a.state
}

// Advance performs the next authentication step for the current state.
// Callers invoke it repeatedly at AuthInterval seconds; it never returns an
// error, since failed steps leave the state for the following tick to retry.
// A stored refresh token takes precedence over an in-flight device session.
func (a *Authenticator) Advance(ctx context.Context) State {
	a.lock.Lock()
	defer a.lock.Unlock()

	if !a.config.HasCredentials() || a.state == StateAuthenticated {
		return a.state
	}

	a.state = StateAuthenticating

	var err error
	switch {
	case a.tokens.RefreshToken != "":
		err = a.refresh(ctx)
	case a.session != nil:
		err = a.exchangeDeviceCode(ctx)
	default:
		err = a.beginDeviceAuthorization(ctx)
	}
	if err != nil && !errors.Is(err, errors.ErrAuthorizationPending) {
		log.Debug().Err(err).Str("attempt", a.attemptID).Msg("authentication step failed")
	}
	return a.state
}

// HasToken reports whether an access token is held in memory. It says
// nothing about server-side validity: expiry is discovered on the next
// data call.
func (a *Authenticator) HasToken() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.tokens.AccessToken != ""
}

// State returns the current lifecycle phase.
func (a *Authenticator) State() State {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.state
}

// AuthCode is the user code to display while pairing, empty when no device
// session is in flight.
func (a *Authenticator) AuthCode() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.UserCode
}

// AuthQRLink is the complete verification URI for the pairing prompt,
// typically rendered as a QR code by the panel.
func (a *Authenticator) AuthQRLink() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.VerificationURI
}

// AuthInterval is the poll cadence in seconds the caller must honour.
func (a *Authenticator) AuthInterval() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.authInterval
}

// AccessToken returns the in-memory access token, empty when not
// authenticated.
func (a *Authenticator) AccessToken() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.tokens.AccessToken
}

// IDToken returns the OpenID Connect ID token from the last grant, if any.
func (a *Authenticator) IDToken() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.idToken
}

// beginDeviceAuthorization starts a fresh device-flow attempt, replacing
// any previous session. Callers hold the lock.
func (a *Authenticator) beginDeviceAuthorization(ctx context.Context) error {
	form := url.Values{}
	form.Set("client_id", a.config.GetClientID())
	form.Set("client_secret", a.config.GetClientSecret())

	endpoint := a.config.GetIdentityBaseURL() + deviceAuthorizationPath
	resp, err := a.postForm(ctx, endpoint, form)
	if err != nil {
		return errors.Wrapf(err, "[beginDeviceAuthorization] post")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return errors.Wrapf(errors.ErrUnexpectedStatus, "[beginDeviceAuthorization] status %d", resp.StatusCode)
	}

	var da deviceAuthorizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&da); err != nil {
		return errors.Wrapf(errors.ErrDecode, "[beginDeviceAuthorization] %v", err)
	}

	interval := da.Interval
	if interval <= 0 {
		interval = defaultAuthInterval
	}

	a.session = &DeviceSession{
		DeviceCode:          da.DeviceCode,
		UserCode:            da.UserCode,
		VerificationURI:     da.VerificationURIComplete,
		PollIntervalSeconds: interval,
	}
	a.authInterval = interval
	a.attemptID = uuid.New().String()

	log.Debug().Str("attempt", a.attemptID).Int("interval", interval).Msg("device authorization started")
	return nil
}

// exchangeDeviceCode polls the token endpoint with the device-code grant.
// authorization_pending and slow_down keep the session for the next tick;
// access_denied and expired_token abandon it so a fresh device
// authorization starts instead of polling a dead code forever.
// Callers hold the lock.
func (a *Authenticator) exchangeDeviceCode(ctx context.Context) error {
	if a.session == nil {
		return errors.ErrNoDeviceSession
	}

	form := url.Values{}
	form.Set("grant_type", deviceCodeGrant)
	form.Set("device_code", a.session.DeviceCode)
	form.Set("client_id", a.config.GetClientID())
	form.Set("client_secret", a.config.GetClientSecret())
	form.Set("scope", tokenScope)

	err := a.tokenCall(ctx, form)
	if err == nil {
		log.Debug().Str("attempt", a.attemptID).Msg("device pairing complete")
		return nil
	}

	if errors.Is(err, errors.ErrAccessDenied) || errors.Is(err, errors.ErrDeviceCodeExpired) {
		log.Debug().Err(err).Str("attempt", a.attemptID).Msg("device session abandoned")
		a.session = nil
		a.attemptID = ""
	}
	return err
}

// refresh runs the refresh-token grant. On failure the stored token is
// considered invalid and dropped, reverting toward a new device
// authorization on the next tick. Callers hold the lock.
func (a *Authenticator) refresh(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", a.tokens.RefreshToken)
	form.Set("client_id", a.config.GetClientID())
	form.Set("client_secret", a.config.GetClientSecret())

	if err := a.tokenCall(ctx, form); err != nil {
		a.tokens.RefreshToken = ""
		a.state = StateAuthenticating
		return errors.Wrapf(err, "[refresh] grant")
	}
	return nil
}

// tokenCall posts a grant to the token endpoint and installs the resulting
// token pair. Rotated refresh tokens are persisted every time; a failed
// persist is tolerated since the in-memory pair still serves this session.
// Callers hold the lock.
func (a *Authenticator) tokenCall(ctx context.Context, form url.Values) error {
	endpoint := a.config.GetIdentityBaseURL() + tokenPath
	resp, err := a.postForm(ctx, endpoint, form)
	if err != nil {
		return errors.Wrapf(err, "[tokenCall] post")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[tokenCall] read body")
	}

	if resp.StatusCode != http.StatusOK {
		return a.tokenError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return errors.Wrapf(errors.ErrDecode, "[tokenCall] %v", err)
	}
	if tr.AccessToken == "" {
		return errors.Wrapf(errors.ErrDecode, "[tokenCall] missing access_token")
	}

	rotated := tr.RefreshToken != "" && tr.RefreshToken != a.tokens.RefreshToken

	a.tokens.AccessToken = tr.AccessToken
	a.idToken = tr.IDToken
	if tr.RefreshToken != "" {
		a.tokens.RefreshToken = tr.RefreshToken
	}
	a.state = StateAuthenticated
	a.session = nil

	if rotated {
		if err := a.store.Save(a.tokens.RefreshToken); err != nil {
			log.Warn().Err(err).Msg("failed to persist rotated refresh token")
		}
	}

	log.Debug().Bool("rotated", rotated).Msg("token grant succeeded")
	return nil
}

// tokenError maps a non-2xx token response to a typed error. Unknown error
// codes degrade to a plain status error, which leaves state untouched the
// same way the pending case does.
func (a *Authenticator) tokenError(status int, body []byte) error {
	var oe oauthErrorResponse
	if err := json.Unmarshal(body, &oe); err == nil {
		switch oe.Error {
		case oauthErrAuthorizationPending, oauthErrSlowDown:
			return errors.ErrAuthorizationPending
		case oauthErrAccessDenied:
			return errors.ErrAccessDenied
		case oauthErrExpiredToken:
			return errors.ErrDeviceCodeExpired
		}
	}
	return errors.Wrapf(errors.ErrUnexpectedStatus, "[tokenCall] status %d", status)
}

func (a *Authenticator) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	return a.httpClient.Do(req)
}
