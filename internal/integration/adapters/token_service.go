package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/travelbooks/backoffice/internal/application/adapter"
)

// ServiceClaims represents the custom claims for service tokens.
type ServiceClaims struct {
	Service string `json:"service"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// tokenService implements the adapter.TokenService interface.
type tokenService struct {
	secret []byte
}

// NewTokenService creates a new token service instance.
func NewTokenService(secret string) adapter.TokenService {
	return &tokenService{secret: []byte(secret)}
}

// IssueServiceToken creates a signed token for a named service.
func (s *tokenService) IssueServiceToken(ctx context.Context, service, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ServiceClaims{
		Service: service,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "travelbooks-backoffice",
			Subject:   service,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateServiceToken checks signature and expiry and returns the claims.
func (s *tokenService) ValidateServiceToken(ctx context.Context, tokenString string) (*adapter.ServiceTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &adapter.ServiceTokenClaims{
		Service: claims.Service,
		Role:    claims.Role,
	}, nil
}
