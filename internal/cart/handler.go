package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/domain/cart"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearCart)
	r.POST("/cart/items", h.AddItem)
	r.PUT("/cart/items/:productId", h.UpdateQty)
	r.DELETE("/cart/items/:productId", h.RemoveItem)
}

func (h *Handler) GetCart(c *gin.Context) {
	crt, err := h.svc.Get(c.Request.Context(), auth.DeviceID(c))
	h.respond(c, crt, err)
}

type AddItemReq struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
	Qty       int     `json:"qty"`
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Qty < 0 {
		views.BadRequest(c, "invalid request")
		return
	}
	crt, err := h.svc.Add(c.Request.Context(), auth.DeviceID(c), cart.Line{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		ImageRef:  req.Image,
		Quantity:  req.Qty,
	})
	h.respond(c, crt, err)
}

type UpdateQtyReq struct {
	Qty int `json:"qty"`
}

// UpdateQty accepts any quantity; values below one leave the cart as it is.
func (h *Handler) UpdateQty(c *gin.Context) {
	productID, ok := util.ParamID(c, "productId")
	if !ok {
		return
	}
	var req UpdateQtyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	crt, err := h.svc.SetQuantity(c.Request.Context(), auth.DeviceID(c), productID, req.Qty)
	h.respond(c, crt, err)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	productID, ok := util.ParamID(c, "productId")
	if !ok {
		return
	}
	crt, err := h.svc.Remove(c.Request.Context(), auth.DeviceID(c), productID)
	h.respond(c, crt, err)
}

func (h *Handler) ClearCart(c *gin.Context) {
	crt, err := h.svc.Clear(c.Request.Context(), auth.DeviceID(c))
	h.respond(c, crt, err)
}

func (h *Handler) respond(c *gin.Context, crt cart.Cart, err error) {
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":  crt,
		"total": crt.Total(),
		"count": crt.Count(),
	})
}
