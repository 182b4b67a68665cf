package cart

// Line is one product entry of a cart. LineID is set only once the line
// lives in a server cart.
type Line struct {
	ProductID int64   `json:"product_id"`
	LineID    *int64  `json:"line_id,omitempty"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	ImageRef  string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (l Line) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is either the guest cart of a device or a server cart of a user.
type Cart struct {
	ID     *int64 `json:"id,omitempty"`
	Source string `json:"source"`
	Lines  []Line `json:"lines"`
}

const (
	SourceGuest  = "guest"
	SourceServer = "server"
)

func (c Cart) Total() float64 {
	var sum float64
	for _, l := range c.Lines {
		sum += l.Subtotal()
	}
	return sum
}

func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Find returns the line for productID, if any.
func (c Cart) Find(productID int64) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}
