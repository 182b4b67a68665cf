package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wodoame/smecs/internal/domain/inventory"
)

type inventoryDTO struct {
	ID       int64      `json:"id"`
	Product  productDTO `json:"product"`
	Quantity int        `json:"quantity"`
}

func (d inventoryDTO) inventory() inventory.Inventory {
	return inventory.Inventory{ID: d.ID, Product: d.Product.product(), Quantity: d.Quantity}
}

type inventoryReq struct {
	Quantity int `json:"quantity"`
	Product  struct {
		Name        string  `json:"name"`
		Description string  `json:"description,omitempty"`
		Price       float64 `json:"price"`
		CategoryID  int64   `json:"categoryId"`
		ImageURL    string  `json:"imageUrl,omitempty"`
	} `json:"product"`
}

func newInventoryReq(in inventory.Input) inventoryReq {
	var r inventoryReq
	r.Quantity = in.Quantity
	r.Product.Name = in.Product.Name
	r.Product.Description = in.Product.Description
	r.Product.Price = in.Product.Price
	r.Product.CategoryID = in.Product.CategoryID
	r.Product.ImageURL = in.Product.ImageURL
	return r
}

// RESTInventory manages inventory through /api/inventories.
type RESTInventory struct {
	c *Client
}

func (c *Client) RESTInventory() RESTInventory {
	return RESTInventory{c: c}
}

func (r RESTInventory) List(ctx context.Context, token string, q PageQuery) (Page[inventory.Inventory], error) {
	const op = "inventory.list"
	raw, err := r.c.call(ctx, op, http.MethodGet, "/api/inventories"+q.encode(), token, nil)
	if err != nil {
		return Page[inventory.Inventory]{}, err
	}
	page, err := decodePage[inventoryDTO](op, raw)
	if err != nil {
		return Page[inventory.Inventory]{}, err
	}
	return mapPage(page, inventoryDTO.inventory), nil
}

func (r RESTInventory) Get(ctx context.Context, token string, id int64) (inventory.Inventory, error) {
	const op = "inventory.get"
	raw, err := r.c.call(ctx, op, http.MethodGet, fmt.Sprintf("/api/inventories/%d", id), token, nil)
	if err != nil {
		return inventory.Inventory{}, err
	}
	dto, err := decodeData[inventoryDTO](op, raw)
	if err != nil {
		return inventory.Inventory{}, err
	}
	return dto.inventory(), nil
}

func (r RESTInventory) Create(ctx context.Context, token string, in inventory.Input) (inventory.Inventory, error) {
	const op = "inventory.create"
	raw, err := r.c.call(ctx, op, http.MethodPost, "/api/inventories", token, newInventoryReq(in))
	if err != nil {
		return inventory.Inventory{}, err
	}
	dto, err := decodeData[inventoryDTO](op, raw)
	if err != nil {
		return inventory.Inventory{}, err
	}
	return dto.inventory(), nil
}

func (r RESTInventory) Update(ctx context.Context, token string, id int64, in inventory.Input) (inventory.Inventory, error) {
	const op = "inventory.update"
	raw, err := r.c.call(ctx, op, http.MethodPut, fmt.Sprintf("/api/inventories/%d", id), token, newInventoryReq(in))
	if err != nil {
		return inventory.Inventory{}, err
	}
	dto, err := decodeData[inventoryDTO](op, raw)
	if err != nil {
		return inventory.Inventory{}, err
	}
	return dto.inventory(), nil
}

func (r RESTInventory) Delete(ctx context.Context, token string, id int64) error {
	_, err := r.c.call(ctx, "inventory.delete", http.MethodDelete, fmt.Sprintf("/api/inventories/%d", id), token, nil)
	return err
}
