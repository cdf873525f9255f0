package navigraph

// State is the authenticator's externally observable lifecycle phase.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// DeviceSession holds one in-flight device-authorization attempt. It lives
// in memory only and is discarded on success or when a new attempt starts.
type DeviceSession struct {
	DeviceCode          string
	UserCode            string
	VerificationURI     string
	PollIntervalSeconds int
}

// TokenPair is the outcome of a successful token grant. The refresh token
// survives restarts via the credential store; the access token never leaves
// process memory and is assumed short-lived.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// deviceAuthorizationResponse is the wire shape of POST /connect/deviceauthorization.
type deviceAuthorizationResponse struct {
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	DeviceCode              string `json:"device_code"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// tokenResponse is the wire shape of POST /connect/token/ for both the
// device-code and refresh grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// oauthErrorResponse is the RFC 6749 error body returned on non-2xx token
// responses. During device-flow polling the expected pending state arrives
// this way.
type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// subscriptionResponse is the wire shape of GET /2/subscriptions/valid.
type subscriptionResponse struct {
	SubscriptionName string `json:"subscription_name"`
}
