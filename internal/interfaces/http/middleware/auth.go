// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// SessionResolver maps a bearer token to a live session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware requires a bearer token bound to a live session
func AuthMiddleware(sessions SessionResolver, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		s, err := sessions.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, errs.ErrAuthRequired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid or expired token",
				})
				return
			}
			log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify session",
			})
			return
		}

		c.Set(sessionKey, s)
		c.Set(identityKey, s.Identity)

		c.Next()
	}
}

// AdminMiddleware ensures the signed-in identity is an admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// SessionFromContext returns the session stored by AuthMiddleware
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	s, ok := value.(*session.Session)
	return s, ok && s != nil
}

// IdentityFromContext returns the signed-in identity, if any
func IdentityFromContext(c *gin.Context) (*user.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*user.Identity)
	return identity, ok && identity != nil
}

// SetIdentity replaces the identity for the rest of the request
func SetIdentity(c *gin.Context, identity *user.Identity) {
	c.Set(identityKey, identity)
}
