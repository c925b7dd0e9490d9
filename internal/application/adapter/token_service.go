package adapter

import (
	"context"
	"time"
)

// ServiceTokenClaims are the validated claims of a back-office service token.
type ServiceTokenClaims struct {
	Service string
	Role    string
}

// TokenService validates the signed service tokens that machine callers of
// the reconciliation API present.
type TokenService interface {
	// IssueServiceToken creates a signed token for a named service.
	IssueServiceToken(ctx context.Context, service, role string, ttl time.Duration) (string, error)

	// ValidateServiceToken checks signature and expiry and returns the claims.
	ValidateServiceToken(ctx context.Context, token string) (*ServiceTokenClaims, error)
}
