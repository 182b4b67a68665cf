package products

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/product"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

type Catalog interface {
	Products(ctx context.Context, q backend.PageQuery) (backend.Page[product.Product], error)
	Product(ctx context.Context, id int64) (product.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64, q backend.PageQuery) (backend.Page[product.Product], error)
}

type Handler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewHandler(catalog Catalog, log logrus.FieldLogger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/products", h.ListPublic)
	r.GET("/products/:id", h.GetPublic)
}

// ListPublic lists products; ?category=<id> narrows to one category.
func (h *Handler) ListPublic(c *gin.Context) {
	q := util.PageQuery(c, 12, "")

	var (
		page backend.Page[product.Product]
		err  error
	)
	if v := c.Query("category"); v != "" {
		categoryID, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || categoryID <= 0 {
			views.BadRequest(c, "invalid category")
			return
		}
		page, err = h.catalog.ProductsByCategory(c.Request.Context(), categoryID, q)
	} else {
		page, err = h.catalog.Products(c.Request.Context(), q)
	}
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetPublic(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
