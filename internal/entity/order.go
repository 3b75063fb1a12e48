package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle stage of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts any casing of a known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range orderStatuses {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidEntity, s)
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	for _, status := range orderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is tracked independently of OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPending PaymentStatus = "PENDING"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, status := range []PaymentStatus{PaymentStatusPaid, PaymentStatusUnpaid, PaymentStatusPending} {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidEntity, s)
}

type Order struct {
	ID              int             `json:"orderId"`
	UserID          int             `json:"userId"`
	UserName        string          `json:"userName,omitempty"`
	OrderDate       Timestamp       `json:"orderDate"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus,omitempty"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItem     `json:"orderItems"`
	CreatedAt       Timestamp       `json:"createdAt"`
}

// OrderItem carries the product snapshot captured when the order was placed,
// so later product edits never change historical orders.
type OrderItem struct {
	ID          int             `json:"orderItemId,omitempty"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewOrderItem builds a line item with subtotal = unit price × quantity.
func NewOrderItem(productID int, productName string, unitPrice decimal.Decimal, quantity int) OrderItem {
	item := OrderItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	item.Subtotal = item.LineTotal()
	return item
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems adds up the line totals of items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (o *Order) ItemsTotal() decimal.Decimal {
	return SumItems(o.Items)
}

// TotalMatchesItems tolerates one cent of drift, the backend computes in doubles.
func (o *Order) TotalMatchesItems() bool {
	return o.TotalAmount.Sub(o.ItemsTotal()).Abs().LessThanOrEqual(cent)
}

func (o *Order) Validate() error {
	if !o.Status.IsValid() {
		return fmt.Errorf("%w: order %d has status %q", ErrInvalidEntity, o.ID, o.Status)
	}
	if o.PaymentStatus != "" {
		if _, err := ParsePaymentStatus(string(o.PaymentStatus)); err != nil {
			return err
		}
	}
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: order %d item for product %d has quantity %d", ErrInvalidEntity, o.ID, item.ProductID, item.Quantity)
		}
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with o.
func (o Order) Clone() Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
