package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wodoame/smecs/internal/domain/order"
)

type orderDTO struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"userId"`
	TotalAmount float64  `json:"totalAmount"`
	Status      string   `json:"status"`
	CreatedAt   wireTime `json:"createdAt"`
}

func (d orderDTO) order() order.Order {
	return order.Order{
		ID:          d.ID,
		UserID:      d.UserID,
		TotalAmount: d.TotalAmount,
		Status:      order.Status(strings.ToLower(d.Status)),
		CreatedAt:   d.CreatedAt.Time,
	}
}

type orderItemDTO struct {
	ID        int64   `json:"id,omitempty"`
	OrderID   int64   `json:"orderId,omitempty"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (d orderItemDTO) line() order.Line {
	return order.Line{
		ID:        d.ID,
		OrderID:   d.OrderID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     d.Price,
	}
}

func (c *Client) CreateOrder(ctx context.Context, token string, userID int64) (order.Order, error) {
	const op = "order.create"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/orders", token, map[string]int64{"userId": userID})
	if err != nil {
		return order.Order{}, err
	}
	dto, err := decodeData[orderDTO](op, raw)
	if err != nil {
		return order.Order{}, err
	}
	return dto.order(), nil
}

// CreateOrderLines attaches lines to an existing order in one call.
func (c *Client) CreateOrderLines(ctx context.Context, token string, orderID int64, lines []order.Line) ([]order.Line, error) {
	const op = "order.lines.create"
	items := make([]orderItemDTO, 0, len(lines))
	for _, l := range lines {
		items = append(items, orderItemDTO{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	raw, err := c.call(ctx, op, http.MethodPost, "/api/orderitems", token, map[string]any{
		"orderId": orderID,
		"items":   items,
	})
	if err != nil {
		return nil, err
	}
	page, err := decodePage[orderItemDTO](op, raw)
	if err != nil {
		return nil, err
	}
	return mapSlice(page.Items, orderItemDTO.line), nil
}

func (c *Client) DeleteOrder(ctx context.Context, token string, orderID int64) error {
	_, err := c.call(ctx, "order.delete", http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), token, nil)
	return err
}

func (c *Client) Order(ctx context.Context, token string, orderID int64) (order.Order, error) {
	const op = "order.get"
	raw, err := c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), token, nil)
	if err != nil {
		return order.Order{}, err
	}
	dto, err := decodeData[orderDTO](op, raw)
	if err != nil {
		return order.Order{}, err
	}
	return dto.order(), nil
}

func (c *Client) OrderLines(ctx context.Context, token string, orderID int64) ([]order.Line, error) {
	const op = "order.lines"
	raw, err := c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/orderitems/order/%d", orderID), token, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[orderItemDTO](op, raw)
	if err != nil {
		return nil, err
	}
	return mapSlice(page.Items, orderItemDTO.line), nil
}

// UserOrders lists the order history of one user.
func (c *Client) UserOrders(ctx context.Context, token string, userID int64, q PageQuery) (Page[order.Order], error) {
	const op = "order.user_list"
	raw, err := c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/orders/user/%d%s", userID, q.encode()), token, nil)
	if err != nil {
		return Page[order.Order]{}, err
	}
	page, err := decodePage[orderDTO](op, raw)
	if err != nil {
		return Page[order.Order]{}, err
	}
	return mapPage(page, orderDTO.order), nil
}

// Orders lists every order; admin only.
func (c *Client) Orders(ctx context.Context, token string, q PageQuery) (Page[order.Order], error) {
	const op = "order.list"
	raw, err := c.call(ctx, op, http.MethodGet, "/api/orders"+q.encode(), token, nil)
	if err != nil {
		return Page[order.Order]{}, err
	}
	page, err := decodePage[orderDTO](op, raw)
	if err != nil {
		return Page[order.Order]{}, err
	}
	return mapPage(page, orderDTO.order), nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, orderID int64, status order.Status) (order.Order, error) {
	const op = "order.update_status"
	raw, err := c.call(ctx, op, http.MethodPut, fmt.Sprintf("/api/orders/%d", orderID), token, map[string]string{
		"status": strings.ToUpper(string(status)),
	})
	if err != nil {
		return order.Order{}, err
	}
	dto, err := decodeData[orderDTO](op, raw)
	if err != nil {
		return order.Order{}, err
	}
	return dto.order(), nil
}
