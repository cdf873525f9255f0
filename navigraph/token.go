package navigraph

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

// TokenSummary carries display-only facts about the held access token,
// decoded from its JWT claims without signature verification. It exists for
// the panel's status view; the authenticator never consults expiry, since a
// stale token is discovered by the next data call failing.
type TokenSummary struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenSummary decodes the current access token's registered claims.
func (c *Client) TokenSummary() (TokenSummary, error) {
	raw := c.auth.AccessToken()
	if raw == "" {
		return TokenSummary{}, errors.ErrNoAccessToken
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return TokenSummary{}, errors.Wrapf(errors.ErrDecode, "[TokenSummary] %v", err)
	}

	summary := TokenSummary{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		summary.ExpiresAt = claims.ExpiresAt.Time
	}
	return summary, nil
}
