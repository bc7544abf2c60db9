package middleware

import (
	"net/http"
	"strings"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/services"
	"rtckit/pkg/logger"

	"github.com/gin-gonic/gin"
)

const identityContextKey = "identity"

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		setIdentity(c, claims.Identity())
		c.Next()
	}
}

func OptionalAuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := authService.ValidateToken(parts[1]); err == nil {
				setIdentity(c, claims.Identity())
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, identity domain.Identity) {
	c.Set(identityContextKey, identity)
	c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), identity.URI))
}

// IdentityFromContext returns the caller set by AuthMiddleware.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
