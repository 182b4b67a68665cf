package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wodoame/smecs/internal/domain/category"
	"github.com/wodoame/smecs/internal/domain/product"
)

type categoryDTO struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
}

func (d categoryDTO) category() category.Category {
	return category.Category{ID: d.CategoryID, Name: d.CategoryName, Description: d.Description, ImageURL: d.ImageURL}
}

type productDTO struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	ImageURL    string       `json:"imageUrl"`
	Image       string       `json:"image"`
	Category    *categoryDTO `json:"category"`
}

func (d productDTO) product() product.Product {
	p := product.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		ImageURL:    d.ImageURL,
	}
	if p.ImageURL == "" {
		p.ImageURL = d.Image
	}
	if d.Category != nil {
		c := d.Category.category()
		p.Category = &c
	}
	return p
}

type CategoryInput struct {
	Name        string `json:"categoryName"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (c *Client) Products(ctx context.Context, q PageQuery) (Page[product.Product], error) {
	const op = "product.list"
	raw, err := c.call(ctx, op, http.MethodGet, "/api/products"+q.encode(), "", nil)
	if err != nil {
		return Page[product.Product]{}, err
	}
	page, err := decodePage[productDTO](op, raw)
	if err != nil {
		return Page[product.Product]{}, err
	}
	return mapPage(page, productDTO.product), nil
}

func (c *Client) Product(ctx context.Context, id int64) (product.Product, error) {
	const op = "product.get"
	raw, err := c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", nil)
	if err != nil {
		return product.Product{}, err
	}
	dto, err := decodeData[productDTO](op, raw)
	if err != nil {
		return product.Product{}, err
	}
	return dto.product(), nil
}

func (c *Client) Categories(ctx context.Context, q PageQuery) (Page[category.Category], error) {
	const op = "category.list"
	raw, err := c.call(ctx, op, http.MethodGet, "/api/categories"+q.encode(), "", nil)
	if err != nil {
		return Page[category.Category]{}, err
	}
	page, err := decodePage[categoryDTO](op, raw)
	if err != nil {
		return Page[category.Category]{}, err
	}
	return mapPage(page, categoryDTO.category), nil
}

func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) (category.Category, error) {
	const op = "category.create"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/categories", token, in)
	if err != nil {
		return category.Category{}, err
	}
	dto, err := decodeData[categoryDTO](op, raw)
	if err != nil {
		return category.Category{}, err
	}
	return dto.category(), nil
}

func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, in CategoryInput) (category.Category, error) {
	const op = "category.update"
	raw, err := c.call(ctx, op, http.MethodPut, fmt.Sprintf("/api/categories/%d", id), token, in)
	if err != nil {
		return category.Category{}, err
	}
	dto, err := decodeData[categoryDTO](op, raw)
	if err != nil {
		return category.Category{}, err
	}
	return dto.category(), nil
}

func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	_, err := c.call(ctx, "category.delete", http.MethodDelete, fmt.Sprintf("/api/categories/%d", id), token, nil)
	return err
}
