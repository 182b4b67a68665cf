package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wodoame/smecs/internal/domain/cart"
)

type cartItemDTO struct {
	CartItemID   int64   `json:"cartItemId"`
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

func (d cartItemDTO) line() cart.Line {
	id := d.CartItemID
	return cart.Line{
		ProductID: d.ProductID,
		LineID:    &id,
		Name:      d.ProductName,
		UnitPrice: d.Price,
		ImageRef:  d.ProductImage,
		Quantity:  d.Quantity,
	}
}

type cartDTO struct {
	CartID int64 `json:"cartId"`
	UserID int64 `json:"userId"`
}

type cartItemReq struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartLines fetches the lines of a server cart.
func (c *Client) CartLines(ctx context.Context, token string, cartID int64) ([]cart.Line, error) {
	const op = "cart.lines"
	raw, err := c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/cart-items/cart/%d", cartID), token, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[cartItemDTO](op, raw)
	if err != nil {
		return nil, err
	}
	return mapSlice(page.Items, cartItemDTO.line), nil
}

// CreateCart creates the server cart of a user and returns its id.
func (c *Client) CreateCart(ctx context.Context, token string, userID int64) (int64, error) {
	const op = "cart.create"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/carts", token, map[string]int64{"userId": userID})
	if err != nil {
		return 0, err
	}
	dto, err := decodeData[cartDTO](op, raw)
	if err != nil {
		return 0, err
	}
	return dto.CartID, nil
}

func (c *Client) AddLine(ctx context.Context, token string, userID, cartID, productID int64, qty int) (cart.Line, error) {
	const op = "cart.add"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/cart-items", token, map[string]any{
		"userId":    userID,
		"cartId":    cartID,
		"productId": productID,
		"quantity":  qty,
	})
	if err != nil {
		return cart.Line{}, err
	}
	dto, err := decodeData[cartItemDTO](op, raw)
	if err != nil {
		return cart.Line{}, err
	}
	return dto.line(), nil
}

// BatchAdd submits several lines in one call. Quantities are added to any
// line the server cart already holds for the same product.
func (c *Client) BatchAdd(ctx context.Context, token string, userID int64, lines []cart.Line) ([]cart.Line, error) {
	const op = "cart.batch_add"
	items := make([]cartItemReq, 0, len(lines))
	for _, l := range lines {
		items = append(items, cartItemReq{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	raw, err := c.call(ctx, op, http.MethodPost, "/api/cart-items/batch", token, map[string]any{
		"userId": userID,
		"items":  items,
	})
	if err != nil {
		return nil, err
	}
	page, err := decodePage[cartItemDTO](op, raw)
	if err != nil {
		return nil, err
	}
	return mapSlice(page.Items, cartItemDTO.line), nil
}

func (c *Client) UpdateLine(ctx context.Context, token string, lineID int64, qty int) (cart.Line, error) {
	const op = "cart.update"
	raw, err := c.call(ctx, op, http.MethodPut, fmt.Sprintf("/api/cart-items/%d", lineID), token, map[string]int{"quantity": qty})
	if err != nil {
		return cart.Line{}, err
	}
	dto, err := decodeData[cartItemDTO](op, raw)
	if err != nil {
		return cart.Line{}, err
	}
	return dto.line(), nil
}

func (c *Client) DeleteLine(ctx context.Context, token string, lineID int64) error {
	_, err := c.call(ctx, "cart.delete", http.MethodDelete, fmt.Sprintf("/api/cart-items/%d", lineID), token, nil)
	return err
}

func (c *Client) ClearCart(ctx context.Context, token string, cartID int64) error {
	_, err := c.call(ctx, "cart.clear", http.MethodDelete, fmt.Sprintf("/api/carts/%d/clear", cartID), token, nil)
	return err
}
