package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookieName identifies a single browser instance. The payment
// handoff state is namespaced by this ID, so it is scoped to one client and
// not shared across different visitors.
const SessionCookieName = "tb_session"

const sessionContextKey = "session_id"

// Session ensures every request carries a session ID, issuing a cookie on
// first contact. Concurrent tabs share the cookie; the resulting
// last-writer-wins overwrite of handoff state is accepted.
func Session(cookieMaxAge int, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(SessionCookieName, sessionID, cookieMaxAge, "/", "", secure, true)
		}
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session ID set by the Session middleware.
func SessionID(c *gin.Context) string {
	if id, exists := c.Get(sessionContextKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
