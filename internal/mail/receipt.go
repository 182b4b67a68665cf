package mail

import (
	"fmt"
	"strings"

	"github.com/wodoame/smecs/internal/domain/order"
)

// Receipt renders the order confirmation sent after a checkout.
func Receipt(username string, o order.Order, lines []order.Line) (subject, body string) {
	subject = fmt.Sprintf("Your order #%d", o.ID)

	var b strings.Builder
	name := username
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order #%d.\n\n", name, o.ID)
	var total float64
	for _, l := range lines {
		label := l.ProductName
		if label == "" {
			label = fmt.Sprintf("Product #%d", l.ProductID)
		}
		fmt.Fprintf(&b, "  %d x %s  %.2f\n", l.Quantity, label, l.Subtotal())
		total += l.Subtotal()
	}
	if o.TotalAmount > 0 {
		total = o.TotalAmount
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\n", total)
	return subject, b.String()
}
