package middleware

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	SessionCookieName = "studio_session"
	sessionIDKey      = "sid"
	studioStoreKey    = "studio_store"
)

// NewCookieStore creates the signed cookie store that carries studio session ids
func NewCookieStore(secret string, ttl time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// StudioSession attaches the caller's studio store to the request, creating a
// session (and setting its cookie) when the caller has none or it expired.
func StudioSession(cookies sessions.Store, registry *studio.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A cookie that fails to decode yields an empty session
		sess, _ := cookies.Get(c.Request, SessionCookieName)
		id, _ := sess.Values[sessionIDKey].(string)

		resolvedID, store := registry.Resolve(id)
		if resolvedID != id {
			sess.Values[sessionIDKey] = resolvedID
			if err := sess.Save(c.Request, c.Writer); err != nil {
				logger.Error("Failed to save studio session", err, logger.WithContext(c))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
				return
			}
		}

		c.Set("session_id", resolvedID)
		c.Set(studioStoreKey, store)
		c.Next()
	}
}

// StudioStore returns the store attached by StudioSession
func StudioStore(c *gin.Context) (*studio.Store, bool) {
	v, exists := c.Get(studioStoreKey)
	if !exists {
		return nil, false
	}
	store, ok := v.(*studio.Store)
	return store, ok
}
