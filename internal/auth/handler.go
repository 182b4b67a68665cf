package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/backend"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/domain/user"
	"github.com/wodoame/smecs/internal/session"
	"github.com/wodoame/smecs/internal/views"
)

const (
	EventAuthChange = "auth-change"

	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Accounts is the backend's auth surface.
type Accounts interface {
	Login(ctx context.Context, username, password string) (backend.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (backend.AuthResult, error)
	Verify(ctx context.Context, token string) (user.Account, error)
}

type Sessions interface {
	SessionReader
	Login(ctx context.Context, device string, sess domain.Session) error
	Logout(ctx context.Context, device string) error
	Hub() *session.Hub
}

// Merge reports what a page load did with a stale guest cart.
type Merge struct {
	Merged bool
	Lines  int
	Err    error
}

// ResumeFunc loads the device's valid session and merges any guest cart
// left next to it.
type ResumeFunc func(ctx context.Context, device string) (*domain.Session, Merge, error)

type Dependencies struct {
	JWT      *JWTManager
	Accounts Accounts
	Sessions Sessions
	Resume   ResumeFunc
	// empty allows any origin
	AllowedOrigins []string
	Log            logrus.FieldLogger
}

type Handler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
}

func NewHandler(d Dependencies) *Handler {
	h := &Handler{deps: d}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.deps.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.deps.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// IssueDevice hands a browser profile its device token. The storefront keeps
// it for as long as the profile lives.
func (h *Handler) IssueDevice(c *gin.Context) {
	token, device, exp, err := h.deps.JWT.IssueDevice()
	if err != nil {
		h.deps.Log.WithError(err).Error("sign device token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"device_token": token,
		"device_id":    device,
		"expires_at":   exp,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, err.Error())
		return
	}
	res, err := h.deps.Accounts.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "view": views.Unauthorized})
			return
		}
		views.Fail(c, h.deps.Log, err)
		return
	}
	h.startSession(c, res, http.StatusOK)
}

// Register creates the account. When the backend answers with a token the
// device is signed in right away.
func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	res, err := h.deps.Accounts.Register(c.Request.Context(), strings.TrimSpace(req.Username), req.Email, req.Password)
	if err != nil {
		views.Fail(c, h.deps.Log, err)
		return
	}
	if res.Token == "" {
		c.JSON(http.StatusCreated, gin.H{"ok": true, "account": res.Account})
		return
	}
	h.startSession(c, res, http.StatusCreated)
}

func (h *Handler) startSession(c *gin.Context, res backend.AuthResult, status int) {
	sess := domain.Session{
		UserID:   res.Account.ID,
		Username: res.Account.Username,
		Email:    res.Account.Email,
		Role:     res.Account.Role,
		Token:    res.Token,
		CartID:   res.CartID,
		Expiry:   res.Expiry,
	}
	if sess.Expiry == nil {
		sess.Expiry = session.ExpiryFromToken(res.Token)
	}
	if err := h.deps.Sessions.Login(c.Request.Context(), DeviceID(c), sess); err != nil {
		views.Fail(c, h.deps.Log, err)
		return
	}
	h.deps.Log.WithFields(logrus.Fields{"device": DeviceID(c), "user_id": sess.UserID}).Info("signed in")
	c.JSON(status, gin.H{"session": sess.Public()})
}

// Logout destroys the session. The guest cart is left as it is.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.deps.Sessions.Logout(c.Request.Context(), DeviceID(c)); err != nil {
		views.Fail(c, h.deps.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Verify asks the backend whether the session's token still holds. A
// rejected token ends the session.
func (h *Handler) Verify(c *gin.Context) {
	sess := CurrentSession(c)
	acct, err := h.deps.Accounts.Verify(c.Request.Context(), sess.Token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) {
			if lerr := h.deps.Sessions.Logout(c.Request.Context(), DeviceID(c)); lerr != nil {
				h.deps.Log.WithError(lerr).Warn("logout after rejected token")
			}
		}
		views.Fail(c, h.deps.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "account": acct})
}

// Session is the page-load bootstrap. It answers with a null session for an
// anonymous device.
func (h *Handler) Session(c *gin.Context) {
	sess, merge, err := h.deps.Resume(c.Request.Context(), DeviceID(c))
	if err != nil {
		views.Fail(c, h.deps.Log, err)
		return
	}
	out := gin.H{"session": nil, "merged": merge.Merged, "merged_lines": merge.Lines}
	if sess != nil {
		out["session"] = sess.Public()
	}
	if merge.Err != nil {
		out["merge_error"] = views.Message(views.Of(merge.Err))
	}
	c.JSON(http.StatusOK, out)
}

type eventMsg struct {
	Type    string          `json:"type"`
	Session *domain.Session `json:"session"`
	At      time.Time       `json:"at"`
}

func newEventMsg(sess *domain.Session, at time.Time) eventMsg {
	msg := eventMsg{Type: EventAuthChange, At: at}
	if sess != nil {
		pub := sess.Public()
		msg.Session = &pub
	}
	return msg
}

// Events streams the device's auth changes to one tab. The first message is
// the current state.
func (h *Handler) Events(c *gin.Context) {
	device := DeviceID(c)
	log := h.deps.Log.WithField("device", device)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade")
		return
	}
	defer conn.Close()

	events, cancel := h.deps.Sessions.Hub().Subscribe(device, 8)
	defer cancel()

	// reads only serve close frames and pongs
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sess, err := h.deps.Sessions.Active(c.Request.Context(), device)
	if err != nil {
		log.WithError(err).Warn("load session for events")
	}
	if err := h.write(conn, newEventMsg(sess, time.Now())); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, newEventMsg(ev.Session, ev.At)); err != nil {
				log.WithError(err).Debug("websocket write")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg eventMsg) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
