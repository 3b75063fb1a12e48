package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"productName"`
	Description   string          `json:"description,omitempty"`
	CategoryID    int             `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	SKU           string          `json:"sku,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Active        bool            `json:"isActive"`
	StockQuantity int             `json:"stockQuantity"`
	ReorderLevel  int             `json:"reorderLevel"`
	CreatedAt     Timestamp       `json:"createdAt"`
	UpdatedAt     Timestamp       `json:"updatedAt"`
}

// IsLowStock flags products at or below their reorder level.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}

func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product %d has negative price", ErrInvalidEntity, p.ID)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: product %d has negative stock", ErrInvalidEntity, p.ID)
	}
	return nil
}

type Category struct {
	ID               int       `json:"categoryId"`
	Name             string    `json:"categoryName"`
	Description      string    `json:"description,omitempty"`
	ParentCategoryID *int      `json:"parentCategoryId,omitempty"`
	CreatedAt        Timestamp `json:"createdAt"`
}

// Inventory is the one-to-one stock record of a product.
type Inventory struct {
	ID               int       `json:"id"`
	ProductID        int       `json:"productId"`
	ProductName      string    `json:"productName,omitempty"`
	StockQuantity    int       `json:"stockQuantity"`
	ReservedQuantity int       `json:"reservedQuantity"`
	ReorderLevel     int       `json:"reorderLevel"`
	LastRestocked    Timestamp `json:"lastRestocked"`
}

func (i *Inventory) Available() int {
	return i.StockQuantity - i.ReservedQuantity
}

func (i *Inventory) IsLowStock() bool {
	return i.StockQuantity <= i.ReorderLevel
}

func (i *Inventory) Validate() error {
	if i.StockQuantity < 0 {
		return fmt.Errorf("%w: product %d stock %d below zero", ErrInvalidEntity, i.ProductID, i.StockQuantity)
	}
	if i.ReservedQuantity < 0 || i.ReservedQuantity > i.StockQuantity {
		return fmt.Errorf("%w: product %d reserved %d exceeds stock %d", ErrInvalidEntity, i.ProductID, i.ReservedQuantity, i.StockQuantity)
	}
	return nil
}
