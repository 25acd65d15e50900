package domain

import "errors"

// Error taxonomy shared across services. Callers classify with errors.Is
// and wrap with fmt.Errorf("%w: ...") to attach detail.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication required")
	ErrAuthorization  = errors.New("not allowed")
	ErrInvalidState   = errors.New("invalid state")
	ErrNotFound       = errors.New("not found")
	ErrUpstream       = errors.New("upstream failure")
	ErrConfiguration  = errors.New("not configured")
)
