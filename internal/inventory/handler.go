// Package inventory is the admin back-office for stock. The same handler
// serves the REST and the GraphQL flavour of the backend API.
package inventory

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/inventory"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

// Manager is implemented by backend.RESTInventory and backend.GraphQLInventory.
type Manager interface {
	List(ctx context.Context, token string, q backend.PageQuery) (backend.Page[inventory.Inventory], error)
	Get(ctx context.Context, token string, id int64) (inventory.Inventory, error)
	Create(ctx context.Context, token string, in inventory.Input) (inventory.Inventory, error)
	Update(ctx context.Context, token string, id int64, in inventory.Input) (inventory.Inventory, error)
	Delete(ctx context.Context, token string, id int64) error
}

// NewManager picks the API named by kind ("rest" or "graphql").
func NewManager(c *backend.Client, kind string) Manager {
	if kind == "graphql" {
		return c.GraphQLInventory()
	}
	return c.RESTInventory()
}

type Handler struct {
	mgr Manager
	log logrus.FieldLogger
}

func NewHandler(mgr Manager, log logrus.FieldLogger) *Handler {
	return &Handler{mgr: mgr, log: log}
}

func (h *Handler) List(c *gin.Context) {
	page, err := h.mgr.List(c.Request.Context(), auth.CurrentSession(c).Token, util.PageQuery(c, 20, ""))
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := h.mgr.Get(c.Request.Context(), auth.CurrentSession(c).Token, id)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type InventoryReq struct {
	Quantity int `json:"quantity" binding:"min=0"`
	Product  struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price" binding:"gt=0"`
		CategoryID  int64   `json:"category_id" binding:"required"`
		ImageURL    string  `json:"image_url"`
	} `json:"product"`
}

func (r InventoryReq) input() inventory.Input {
	return inventory.Input{
		Quantity: r.Quantity,
		Product: inventory.ProductInput{
			Name:        r.Product.Name,
			Description: r.Product.Description,
			Price:       r.Product.Price,
			CategoryID:  r.Product.CategoryID,
			ImageURL:    r.Product.ImageURL,
		},
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req InventoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	inv, err := h.mgr.Create(c.Request.Context(), auth.CurrentSession(c).Token, req.input())
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	var req InventoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	inv, err := h.mgr.Update(c.Request.Context(), auth.CurrentSession(c).Token, id, req.input())
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.mgr.Delete(c.Request.Context(), auth.CurrentSession(c).Token, id); err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
