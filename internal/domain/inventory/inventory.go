package inventory

import "github.com/wodoame/smecs/internal/domain/product"

type Inventory struct {
	ID       int64           `json:"id"`
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// ProductInput is the product part of an inventory create/update.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"category_id"`
	ImageURL    string  `json:"image_url,omitempty"`
}

type Input struct {
	Quantity int          `json:"quantity"`
	Product  ProductInput `json:"product"`
}
