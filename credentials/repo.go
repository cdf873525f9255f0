package credentials

// Repo manages durable storage of the Navigraph refresh token. The token is
// an opaque string; the store tracks no expiry and applies no encryption.
// Load returns errors.ErrNoStoredToken when nothing has been saved yet.
// An unavailable backing store is treated the same as an absent token so the
// caller falls back to a fresh device authorization.
type Repo interface {
	Load() (string, error)
	Save(refreshToken string) error
}
