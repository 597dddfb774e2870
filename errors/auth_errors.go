// errors/auth_errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrNotImplemented      = errors.New("operation not implemented")
	ErrCacheUnavailable    = errors.New("cache unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ValidationError carries the upstream message from a failed token
// validation so callers can log the provider's reason without ever
// receiving a partially valid identity.
type ValidationError struct {
	Upstream string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("token validation failed: %s", e.Upstream)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidToken
}
