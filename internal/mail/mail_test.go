package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wodoame/smecs/internal/domain/order"
)

func TestReceipt(t *testing.T) {
	subject, body := Receipt("ama", order.Order{ID: 12}, []order.Line{
		{ProductID: 1, ProductName: "Mug", Quantity: 2, Price: 4.5},
		{ProductID: 3, Quantity: 1, Price: 1},
	})

	assert.Equal(t, "Your order #12", subject)
	assert.Contains(t, body, "Hi ama")
	assert.Contains(t, body, "2 x Mug  9.00")
	assert.Contains(t, body, "1 x Product #3  1.00")
	assert.Contains(t, body, "Total: 10.00")
}

func TestReceipt_PrefersOrderTotal(t *testing.T) {
	_, body := Receipt("", order.Order{ID: 1, TotalAmount: 7.25}, []order.Line{{ProductID: 1, Quantity: 1, Price: 5}})
	assert.Contains(t, body, "Hi there")
	assert.Contains(t, body, "Total: 7.25")
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("shop@example.com", "ama@example.com", "Hello", "line one\nline two")

	assert.True(t, strings.HasPrefix(msg, "From: shop@example.com\r\nTo: ama@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	assert.Contains(t, msg, "line one\r\nline two\r\n")
}
