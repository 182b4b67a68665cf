package orders

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/order"
	"github.com/wodoame/smecs/internal/domain/product"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

type Backend interface {
	UserOrders(ctx context.Context, token string, userID int64, q backend.PageQuery) (backend.Page[order.Order], error)
	Order(ctx context.Context, token string, orderID int64) (order.Order, error)
	OrderLines(ctx context.Context, token string, orderID int64) ([]order.Line, error)
	Orders(ctx context.Context, token string, q backend.PageQuery) (backend.Page[order.Order], error)
	UpdateOrderStatus(ctx context.Context, token string, orderID int64, status order.Status) (order.Order, error)
	Product(ctx context.Context, id int64) (product.Product, error)
}

type Handler struct {
	backend Backend
	log     logrus.FieldLogger
}

func NewHandler(b Backend, log logrus.FieldLogger) *Handler {
	return &Handler{backend: b, log: log}
}

// History lists the signed-in user's orders, newest first.
func (h *Handler) History(c *gin.Context) {
	sess := auth.CurrentSession(c)
	q := util.PageQuery(c, 10, "createdAt,desc")
	page, err := h.backend.UserOrders(c.Request.Context(), sess.Token, sess.UserID, q)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns one order with its lines.
func (h *Handler) Get(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	sess := auth.CurrentSession(c)
	ctx := c.Request.Context()

	o, err := h.backend.Order(ctx, sess.Token, id)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	lines, err := h.backend.OrderLines(ctx, sess.Token, id)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "lines": h.enrich(ctx, lines)})
}

// Lines returns the lines of an order enriched with product details.
func (h *Handler) Lines(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	sess := auth.CurrentSession(c)
	lines, err := h.backend.OrderLines(c.Request.Context(), sess.Token, id)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.enrich(c.Request.Context(), lines)})
}

// enrich looks up each distinct product once. A product that cannot be
// fetched is shown as "Product #<id>".
func (h *Handler) enrich(ctx context.Context, lines []order.Line) []order.Line {
	cache := map[int64]*product.Product{}
	out := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		p, seen := cache[l.ProductID]
		if !seen {
			got, err := h.backend.Product(ctx, l.ProductID)
			if err != nil {
				h.log.WithError(err).WithField("product_id", l.ProductID).Debug("product lookup for order line failed")
			} else {
				p = &got
			}
			cache[l.ProductID] = p
		}
		if p != nil {
			if l.ProductName == "" {
				l.ProductName = p.Name
			}
			if l.ProductImage == "" {
				l.ProductImage = p.ImageURL
			}
		}
		if l.ProductName == "" {
			l.ProductName = fmt.Sprintf("Product #%d", l.ProductID)
		}
		out = append(out, l)
	}
	return out
}

func (h *Handler) AdminList(c *gin.Context) {
	page, err := h.backend.Orders(c.Request.Context(), auth.CurrentSession(c).Token, util.PageQuery(c, 20, "createdAt,desc"))
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type UpdateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	status := order.Status(strings.ToLower(req.Status))
	if !status.Valid() {
		views.BadRequest(c, "status must be pending, shipped, delivered or cancelled")
		return
	}
	updated, err := h.backend.UpdateOrderStatus(c.Request.Context(), auth.CurrentSession(c).Token, id, status)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	h.log.WithFields(logrus.Fields{"order_id": id, "status": status}).Info("order status updated")
	c.JSON(http.StatusOK, updated)
}
