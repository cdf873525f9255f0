package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Navigraph client
var (
	// Configuration errors
	ErrNotConfigured = errors.New("client id or secret not configured")

	// Credential store errors
	ErrNoStoredToken = errors.New("no stored refresh token")

	// Authentication errors
	ErrNoAccessToken        = errors.New("no access token held")
	ErrNoDeviceSession      = errors.New("no device authorization in flight")
	ErrAuthorizationPending = errors.New("device authorization pending")
	ErrAccessDenied         = errors.New("device authorization denied")
	ErrDeviceCodeExpired    = errors.New("device code expired")

	// Transport errors
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// Decoding errors
	ErrDecode = errors.New("malformed provider response")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
