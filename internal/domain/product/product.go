package product

import "github.com/wodoame/smecs/internal/domain/category"

type Product struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Price       float64            `json:"price"`
	ImageURL    string             `json:"image_url,omitempty"`
	Category    *category.Category `json:"category,omitempty"`
}
