package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/infrastructure/auth"
)

const (
	// ContextUserID is the authenticated caller, keyed off their token
	// subject, or the session id when auth is disabled.
	ContextUserID = "user_id"
	// ContextSessionID identifies the working session for profile and
	// job scoping.
	ContextSessionID = "session_id"

	sessionHeader = "X-Session-ID"
)

// Identity resolves who is calling. With a validator every request needs a
// valid bearer token; without one the session header stands in for the user.
func Identity(validator *auth.Validator, log zerolog.Logger) gin.HandlerFunc {
	logger := log.With().Str("component", "identity-middleware").Logger()

	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(sessionHeader))
		if sessionID == "" {
			sessionID = "default"
		}
		c.Set(ContextSessionID, sessionID)

		if validator == nil {
			c.Set(ContextUserID, sessionID)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		principal, err := validator.Validate(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, principal.Subject)
		c.Next()
	}
}

// UserID returns the resolved caller identity for the request.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// SessionID returns the working session for the request.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}
