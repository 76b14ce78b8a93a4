package handlers

import (
	"context"
	"strings"
	"time"

	"polly-backend/logging"
	"polly-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const identityKey = "identity"

// IdentityResolver turns a session token into an identity
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// RequestLogger logs every request once it has been served
func RequestLogger() gin.HandlerFunc {
	log := logging.Module("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// Authenticate attaches the identity behind the bearer token, if any.
// Requests without a valid token continue anonymously; the poll service
// decides what anonymous callers may do.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err == nil && identity != nil {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// CurrentIdentity returns the authenticated caller or nil
func CurrentIdentity(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
