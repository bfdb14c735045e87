package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

const (
	// ContextKeyCaller is the key for the request's service.Caller in gin context
	ContextKeyCaller = "caller"
)

// TokenVerifier resolves a bearer token to a user id. Implemented by
// service.AuthService.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uint64, error)
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, true)
}

// OptionalAuthMiddleware lets requests without an Authorization header through
// as anonymous. A header that is present must still carry a valid token.
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				response.Problem(c, problem.New(problem.KindInvalidToken, "missing authorization header"))
				return
			}
			c.Set(ContextKeyCaller, service.Anonymous)
			c.Next()
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Problem(c, problem.New(problem.KindInvalidToken, "invalid authorization header format"))
			return
		}

		userID, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Problem(c, err)
			return
		}

		c.Set(ContextKeyCaller, service.AsUser(userID))
		c.Next()
	}
}

// CallerFrom gets the caller from the gin context; anonymous when no auth
// middleware ran.
func CallerFrom(c *gin.Context) service.Caller {
	caller, exists := c.Get(ContextKeyCaller)
	if !exists {
		return service.Anonymous
	}
	return caller.(service.Caller)
}

// GetUserID gets the authenticated user ID from the gin context
func GetUserID(c *gin.Context) uint64 {
	return CallerFrom(c).UserID
}
