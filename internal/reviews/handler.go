package reviews

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/review"
	"github.com/wodoame/smecs/internal/util"
	"github.com/wodoame/smecs/internal/views"
)

type Backend interface {
	ReviewsByProduct(ctx context.Context, productID int64, q backend.PageQuery) (backend.Page[review.Review], error)
	CreateReview(ctx context.Context, token string, in backend.ReviewInput) (review.Review, error)
	DeleteReview(ctx context.Context, token string, id int64) error
}

type Handler struct {
	backend Backend
	log     logrus.FieldLogger
}

func NewHandler(b Backend, log logrus.FieldLogger) *Handler {
	return &Handler{backend: b, log: log}
}

func (h *Handler) ByProduct(c *gin.Context) {
	productID, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	page, err := h.backend.ReviewsByProduct(c.Request.Context(), productID, util.PageQuery(c, 10, ""))
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type CreateReviewReq struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=2000"`
}

// Create posts a review as the signed-in user.
func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		views.BadRequest(c, "invalid request")
		return
	}
	sess := auth.CurrentSession(c)
	created, err := h.backend.CreateReview(c.Request.Context(), sess.Token, backend.ReviewInput{
		UserID:    sess.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := util.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteReview(c.Request.Context(), auth.CurrentSession(c).Token, id); err != nil {
		views.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
