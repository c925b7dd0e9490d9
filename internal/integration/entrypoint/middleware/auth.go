// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/dto"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ServiceNameKey is the context key for the authenticated caller's service name.
	ServiceNameKey ContextKey = "service_name"
	// ServiceRoleKey is the context key for the authenticated caller's role.
	ServiceRoleKey ContextKey = "service_role"
)

// AuthMiddleware provides service token authentication middleware. Callers
// of the reconciliation API are back-office services, not end users.
type AuthMiddleware struct {
	tokenService adapter.TokenService
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(tokenService adapter.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate returns a Gin middleware handler that enforces service token
// authentication.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Authorization header is required",
				Code:  string(domainerror.ErrCodeMissingToken),
			})
			c.Abort()
			return
		}

		// Check Bearer prefix
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Invalid authorization header format",
				Code:  string(domainerror.ErrCodeInvalidToken),
			})
			c.Abort()
			return
		}

		// Extract token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Token is required",
				Code:  string(domainerror.ErrCodeMissingToken),
			})
			c.Abort()
			return
		}

		// Validate token
		claims, err := m.tokenService.ValidateServiceToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Invalid or expired token",
				Code:  string(domainerror.ErrCodeInvalidToken),
			})
			c.Abort()
			return
		}

		// Store caller info in context
		c.Set(string(ServiceNameKey), claims.Service)
		c.Set(string(ServiceRoleKey), claims.Role)

		c.Next()
	}
}

// GetServiceNameFromContext extracts the caller's service name from the Gin context.
func GetServiceNameFromContext(c *gin.Context) (string, bool) {
	name, exists := c.Get(string(ServiceNameKey))
	if !exists {
		return "", false
	}
	nameStr, ok := name.(string)
	return nameStr, ok
}

// GetServiceRoleFromContext extracts the caller's role from the Gin context.
func GetServiceRoleFromContext(c *gin.Context) (string, bool) {
	role, exists := c.Get(string(ServiceRoleKey))
	if !exists {
		return "", false
	}
	roleStr, ok := role.(string)
	return roleStr, ok
}
