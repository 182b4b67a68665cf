package categories

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/category"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

type Catalog interface {
	GraphQLCategories(ctx context.Context, q backend.PageQuery) (backend.Page[category.Category], error)
	Categories(ctx context.Context, q backend.PageQuery) (backend.Page[category.Category], error)
	CreateCategory(ctx context.Context, token string, in backend.CategoryInput) (category.Category, error)
	UpdateCategory(ctx context.Context, token string, id int64, in backend.CategoryInput) (category.Category, error)
	DeleteCategory(ctx context.Context, token string, id int64) error
}

type Handler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewHandler(catalog Catalog, log logrus.FieldLogger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

// ListPublic reads categories through GraphQL.
func (h *Handler) ListPublic(c *gin.Context) {
	page, err := h.catalog.GraphQLCategories(c.Request.Context(), util.PageQuery(c, 20, ""))
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminList(c *gin.Context) {
	page, err := h.catalog.Categories(c.Request.Context(), util.PageQuery(c, 50, ""))
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type CategoryReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (r CategoryReq) input() backend.CategoryInput {
	return backend.CategoryInput{Name: r.Name, Description: r.Description, ImageURL: r.ImageURL}
}

func (h *Handler) AdminCreate(c *gin.Context) {
	var req CategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	created, err := h.catalog.CreateCategory(c.Request.Context(), auth.CurrentSession(c).Token, req.input())
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) AdminUpdate(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	var req CategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	updated, err := h.catalog.UpdateCategory(c.Request.Context(), auth.CurrentSession(c).Token, id, req.input())
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) AdminDelete(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), auth.CurrentSession(c).Token, id); err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
