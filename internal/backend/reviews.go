package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wodoame/smecs/internal/domain/review"
)

type reviewDTO struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"userId"`
	ProductID int64    `json:"productId"`
	UserName  string   `json:"userName"`
	Rating    int      `json:"rating"`
	Comment   string   `json:"comment"`
	CreatedAt wireTime `json:"createdAt"`
}

func (d reviewDTO) review() review.Review {
	return review.Review{
		ID:        d.ID,
		UserID:    d.UserID,
		ProductID: d.ProductID,
		UserName:  d.UserName,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt.Time,
	}
}

type ReviewInput struct {
	UserID    int64  `json:"userId"`
	ProductID int64  `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (c *Client) CreateReview(ctx context.Context, token string, in ReviewInput) (review.Review, error) {
	const op = "review.create"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/reviews", token, in)
	if err != nil {
		return review.Review{}, err
	}
	dto, err := decodeData[reviewDTO](op, raw)
	if err != nil {
		return review.Review{}, err
	}
	return dto.review(), nil
}

func (c *Client) DeleteReview(ctx context.Context, token string, id int64) error {
	_, err := c.call(ctx, "review.delete", http.MethodDelete, fmt.Sprintf("/api/reviews/%d", id), token, nil)
	return err
}
