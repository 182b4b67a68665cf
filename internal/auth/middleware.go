package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/views"
)

const (
	CtxDeviceKey  = "device_id"
	CtxSessionKey = "session"

	DeviceHeader = "X-Device-Token"
	// browsers cannot set headers on a websocket handshake
	deviceQuery = "device_token"
)

// SessionReader is the read side of the session store.
type SessionReader interface {
	Active(ctx context.Context, device string) (*domain.Session, error)
}

func DeviceMiddleware(jwtMgr *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(DeviceHeader)
		if token == "" {
			token = c.Query(deviceQuery)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing device token", "view": views.Unauthorized})
			return
		}
		claims, err := jwtMgr.ParseDevice(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid device token", "view": views.Unauthorized})
			return
		}
		c.Set(CtxDeviceKey, claims.DeviceID())
		c.Next()
	}
}

// RequireSession loads the device's valid session or answers with the
// unauthorized view. An expired session is destroyed on the way.
func RequireSession(sessions SessionReader, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessions.Active(c.Request.Context(), DeviceID(c))
		if err != nil {
			views.Fail(c, log, err)
			return
		}
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please sign in", "view": views.Unauthorized})
			return
		}
		c.Set(CtxSessionKey, sess)
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "view": views.Forbidden})
			return
		}
		c.Next()
	}
}

func DeviceID(c *gin.Context) string {
	return c.GetString(CtxDeviceKey)
}

// CurrentSession returns the session RequireSession stored, or nil.
func CurrentSession(c *gin.Context) *domain.Session {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*domain.Session)
	return sess
}
