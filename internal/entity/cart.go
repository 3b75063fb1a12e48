package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID           int             `json:"cartItemId"`
	UserID       int             `json:"userId"`
	ProductID    int             `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	CreatedAt    Timestamp       `json:"createdAt"`
}

func (c *CartItem) Subtotal() decimal.Decimal {
	return c.ProductPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

func (c *CartItem) Validate() error {
	if c.Quantity < 1 {
		return fmt.Errorf("%w: cart item %d has quantity %d", ErrInvalidEntity, c.ID, c.Quantity)
	}
	return nil
}

// Cart is the user's current cart as last fetched.
type Cart struct {
	UserID int        `json:"userId"`
	Items  []CartItem `json:"items"`
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// OrderItems snapshots the cart lines at their captured prices.
func (c *Cart) OrderItems() []OrderItem {
	items := make([]OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		items = append(items, NewOrderItem(line.ProductID, line.ProductName, line.ProductPrice, line.Quantity))
	}
	return items
}
