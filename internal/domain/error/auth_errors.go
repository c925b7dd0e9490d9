package error

import "errors"

// Authentication errors for the service-token middleware.
var (
	// ErrMissingToken is returned when no bearer token accompanies a request.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned when the bearer token fails validation.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthErrorCode defines error codes for authentication errors.
type AuthErrorCode string

const (
	ErrCodeMissingToken AuthErrorCode = "AUTH-010001"
	ErrCodeInvalidToken AuthErrorCode = "AUTH-010002"
	ErrCodeRateLimited  AuthErrorCode = "AUTH-010003"
)
