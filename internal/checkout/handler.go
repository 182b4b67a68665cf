package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/views"
)

type Handler struct {
	saga *Orchestrator
	log  logrus.FieldLogger
}

func NewHandler(saga *Orchestrator, log logrus.FieldLogger) *Handler {
	return &Handler{saga: saga, log: log}
}

// Register expects a group guarded by auth.RequireSession.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/checkout", h.Checkout)
	r.GET("/checkout/:id", h.GetExecution)
}

func (h *Handler) Checkout(c *gin.Context) {
	sess := auth.CurrentSession(c)
	res, err := h.saga.Checkout(c.Request.Context(), auth.DeviceID(c), *sess)
	switch {
	case errors.Is(err, ErrEmptyCart):
		views.BadRequest(c, "your cart is empty")
		return
	case err != nil && res != nil && res.Execution != nil:
		view := views.Of(err)
		h.log.WithError(err).WithField("saga_id", res.Execution.ID).Warn("checkout failed")
		c.AbortWithStatusJSON(backend.StatusOf(err), gin.H{
			"error":     views.Message(view),
			"view":      view,
			"execution": res.Execution,
		})
		return
	case err != nil:
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":     res.Order,
		"lines":     res.Lines,
		"execution": res.Execution,
	})
}

func (h *Handler) GetExecution(c *gin.Context) {
	exec, err := h.saga.GetExecution(c.Param("id"))
	if err != nil || exec.Device != auth.DeviceID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found", "view": views.NotFound})
		return
	}
	c.JSON(http.StatusOK, exec)
}
