package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/mutate"
)

// ErrInsufficientStock is a stock change the local record already rules out.
var ErrInsufficientStock = errors.New("insufficient stock")

var (
	tagProducts   = []string{client.TagProducts}
	tagCategories = []string{client.TagCategories, client.TagProducts}
	tagStock      = []string{client.TagInventory, client.TagProducts}
)

type InventoryBackend interface {
	GetInventory(ctx context.Context, productID int) (*entity.Inventory, error)
	BatchInventory(ctx context.Context, productIDs []int) ([]entity.Inventory, error)
	SetStock(ctx context.Context, productID, quantity int) (*entity.Inventory, error)
	AdjustStock(ctx context.Context, productID int, op client.StockOp, quantity int) (*entity.Inventory, error)
	SetReorderLevel(ctx context.Context, productID, level int) (*entity.Inventory, error)
	OutOfStock(ctx context.Context) ([]entity.Inventory, error)
}

// LowStockSource lists low-stock records; the GraphQL client serves it from cache.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]entity.Inventory, error)
}

type InventoryView struct {
	entity.Inventory
	Available int  `json:"available"`
	LowStock  bool `json:"lowStock"`
}

func inventoryView(i entity.Inventory) InventoryView {
	return InventoryView{Inventory: i, Available: i.Available(), LowStock: i.IsLowStock()}
}

func inventoryViews(items []entity.Inventory) []InventoryView {
	out := make([]InventoryView, 0, len(items))
	for _, i := range items {
		out = append(out, inventoryView(i))
	}
	return out
}

type InventoryService struct {
	backend  InventoryBackend
	lowStock LowStockSource
	cache    Invalidator
}

func NewInventoryService(backend InventoryBackend, lowStock LowStockSource, cache Invalidator) *InventoryService {
	return &InventoryService{backend: backend, lowStock: lowStock, cache: cache}
}

func (s *InventoryService) Get(ctx context.Context, productID int) (*InventoryView, error) {
	inv, err := s.backend.GetInventory(ctx, productID)
	if err != nil {
		return nil, err
	}
	view := inventoryView(*inv)
	return &view, nil
}

func (s *InventoryService) Batch(ctx context.Context, productIDs []int) ([]InventoryView, error) {
	items, err := s.backend.BatchInventory(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	return inventoryViews(items), nil
}

func (s *InventoryService) LowStock(ctx context.Context) ([]InventoryView, error) {
	items, err := s.lowStock.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return inventoryViews(items), nil
}

func (s *InventoryService) OutOfStock(ctx context.Context) ([]InventoryView, error) {
	items, err := s.backend.OutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	return inventoryViews(items), nil
}

// applyStock is the local effect of a stock operation, rejected when it
// would break stock >= 0 or reserved <= stock.
func applyStock(inv entity.Inventory, op client.StockOp, quantity int) (entity.Inventory, error) {
	if quantity < 1 {
		return inv, invalid("quantity", "Quantity must be at least 1")
	}
	switch op {
	case client.StockAdd:
		inv.StockQuantity += quantity
	case client.StockRemove:
		if quantity > inv.Available() {
			return inv, fmt.Errorf("%w for product %d: %d available", ErrInsufficientStock, inv.ProductID, inv.Available())
		}
		inv.StockQuantity -= quantity
	case client.StockReserve:
		if quantity > inv.Available() {
			return inv, fmt.Errorf("%w for product %d: %d available", ErrInsufficientStock, inv.ProductID, inv.Available())
		}
		inv.ReservedQuantity += quantity
	case client.StockRelease:
		if quantity > inv.ReservedQuantity {
			return inv, invalid("quantity", fmt.Sprintf("Only %d units are reserved", inv.ReservedQuantity))
		}
		inv.ReservedQuantity -= quantity
	default:
		return inv, invalid("operation", fmt.Sprintf("Unknown stock operation %q", op))
	}
	return inv, inv.Validate()
}

func (s *InventoryService) change(ctx context.Context, productID int, name string, local func(entity.Inventory) (entity.Inventory, error), commit func(context.Context) (*entity.Inventory, error)) (*InventoryView, error) {
	current, err := s.backend.GetInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	result, err := mutate.Run(ctx, *current, mutate.Mutation[entity.Inventory]{
		Name:       name,
		Optimistic: local,
		Commit: func(ctx context.Context, _ entity.Inventory) (entity.Inventory, error) {
			inv, err := commit(ctx)
			if err != nil {
				return entity.Inventory{}, err
			}
			return *inv, nil
		},
		Refetch: func(ctx context.Context) (entity.Inventory, error) {
			inv, err := s.backend.GetInventory(ctx, productID)
			if err != nil {
				return entity.Inventory{}, err
			}
			return *inv, nil
		},
	})
	if s.cache != nil && (err == nil || errors.Is(err, mutate.ErrReconcile)) {
		if ierr := s.cache.Invalidate(ctx, tagStock...); ierr != nil {
			logger.Warn().Err(ierr).Msg("Error invalidating stock reads")
		}
	}
	view := inventoryView(result)
	return &view, err
}

func (s *InventoryService) Adjust(ctx context.Context, productID int, op client.StockOp, quantity int) (*InventoryView, error) {
	return s.change(ctx, productID, "stock "+string(op),
		func(inv entity.Inventory) (entity.Inventory, error) { return applyStock(inv, op, quantity) },
		func(ctx context.Context) (*entity.Inventory, error) {
			return s.backend.AdjustStock(ctx, productID, op, quantity)
		})
}

func (s *InventoryService) SetStock(ctx context.Context, productID, quantity int) (*InventoryView, error) {
	return s.change(ctx, productID, "stock set",
		func(inv entity.Inventory) (entity.Inventory, error) {
			if quantity < 0 {
				return inv, invalid("quantity", "Stock cannot be negative")
			}
			if quantity < inv.ReservedQuantity {
				return inv, invalid("quantity", fmt.Sprintf("%d units are reserved", inv.ReservedQuantity))
			}
			inv.StockQuantity = quantity
			return inv, nil
		},
		func(ctx context.Context) (*entity.Inventory, error) {
			return s.backend.SetStock(ctx, productID, quantity)
		})
}

func (s *InventoryService) SetReorderLevel(ctx context.Context, productID, level int) (*InventoryView, error) {
	return s.change(ctx, productID, "reorder level",
		func(inv entity.Inventory) (entity.Inventory, error) {
			if level < 0 {
				return inv, invalid("reorderLevel", "Reorder level cannot be negative")
			}
			inv.ReorderLevel = level
			return inv, nil
		},
		func(ctx context.Context) (*entity.Inventory, error) {
			return s.backend.SetReorderLevel(ctx, productID, level)
		})
}
