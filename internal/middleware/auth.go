package middleware

import (
	"net/http"
	"strings"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClaimsKey is the gin context key holding the token claims
const ClaimsKey = "claims"

// TokenParser validates a bearer token and returns its claims
type TokenParser interface {
	Parse(token string) (*models.JWTClaims, error)
}

func abortWith(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message, Kind: kind})
}

// AuthMiddleware validates the session token and stores its claims
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, http.StatusUnauthorized, models.KindUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortWith(c, http.StatusUnauthorized, models.KindUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			observability.Logger().Debug("rejected session token", zap.Error(err))
			abortWith(c, http.StatusUnauthorized, models.KindUnauthorized, "Invalid token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireOwnPhone lets a caller read only the account of the phone their
// token was issued for.
func RequireOwnPhone() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, models.KindUnauthorized, "Claims not found")
			return
		}

		if strings.TrimSpace(c.Param("phone")) != claims.Phone {
			abortWith(c, http.StatusForbidden, models.KindForbidden, "Access denied")
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by AuthMiddleware
func ClaimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
