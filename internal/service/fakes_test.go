package service

import (
	"context"
	"fmt"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/workflow"
)

var (
	admin    = Actor{UserID: 1, Username: "admin", Role: entity.RoleAdmin}
	customer = Actor{UserID: 7, Username: "alice", Role: entity.RoleCustomer}
	stranger = Actor{UserID: 8, Username: "bob", Role: entity.RoleCustomer}
)

type published struct {
	kind    string
	orderID int
}

type eventLog struct {
	events []published
}

func (l *eventLog) PublishOrder(_ context.Context, kind string, order *entity.Order) error {
	l.events = append(l.events, published{kind: kind, orderID: order.ID})
	return nil
}

type fakeOrders struct {
	orders      map[int]*entity.Order
	lastQuery   listing.Query
	calls       []string
	transitions int
	commitErr   error
	created     []client.CreateOrderRequest
	createErr   error
	nextID      int
}

func newFakeOrders(orders ...entity.Order) *fakeOrders {
	f := &fakeOrders{orders: map[int]*entity.Order{}, nextID: 100}
	for i := range orders {
		o := orders[i]
		f.orders[o.ID] = &o
	}
	return f
}

func (f *fakeOrders) ListOrders(_ context.Context, q listing.Query) (*entity.Page[entity.Order], error) {
	f.lastQuery = q
	var content []entity.Order
	for _, o := range f.orders {
		if q.Filter.UserID != nil && o.UserID != *q.Filter.UserID {
			continue
		}
		content = append(content, *o)
	}
	return &entity.Page[entity.Order]{Content: content, Number: q.Page, Size: q.Size, TotalElements: int64(len(content)), TotalPages: 1}, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id int) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", apierr.ErrNotFound, id)
	}
	c := o.Clone()
	return &c, nil
}

func (f *fakeOrders) TransitionOrder(_ context.Context, id int, action workflow.Action, _ string) (*entity.Order, error) {
	f.transitions++
	f.calls = append(f.calls, "transition "+string(action))
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	o := f.orders[id]
	if err := workflow.Apply(o, action); err != nil {
		return nil, err
	}
	c := o.Clone()
	return &c, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id int, status entity.OrderStatus) (*entity.Order, error) {
	f.calls = append(f.calls, "status "+string(status))
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	f.orders[id].Status = status
	c := f.orders[id].Clone()
	return &c, nil
}

func (f *fakeOrders) UpdateOrder(_ context.Context, id int, req client.UpdateOrderRequest) (*entity.Order, error) {
	f.calls = append(f.calls, "update")
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	o := f.orders[id]
	if req.Items != nil {
		o.Items = req.Items
		o.TotalAmount = entity.SumItems(req.Items)
	}
	if req.ShippingAddress != "" {
		o.ShippingAddress = req.ShippingAddress
	}
	c := o.Clone()
	return &c, nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id int) error {
	f.calls = append(f.calls, "delete")
	delete(f.orders, id)
	return nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, req client.CreateOrderRequest, _ string) (*entity.Order, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	o := entity.Order{
		ID:              f.nextID,
		UserID:          req.UserID,
		Status:          entity.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		Items:           req.Items,
		TotalAmount:     entity.SumItems(req.Items),
	}
	f.orders[o.ID] = &o
	return &o, nil
}

type fakeCart struct {
	items    map[int][]entity.CartItem
	clearErr error
	cleared  int
	nextID   int
}

func newFakeCart(userID int, items ...entity.CartItem) *fakeCart {
	return &fakeCart{items: map[int][]entity.CartItem{userID: items}, nextID: 50}
}

func (f *fakeCart) CartItems(_ context.Context, userID int) ([]entity.CartItem, error) {
	return append([]entity.CartItem(nil), f.items[userID]...), nil
}

func (f *fakeCart) AddToCart(_ context.Context, req client.AddToCartRequest) (*entity.CartItem, error) {
	f.nextID++
	item := entity.CartItem{ID: f.nextID, UserID: req.UserID, ProductID: req.ProductID, Quantity: req.Quantity}
	f.items[req.UserID] = append(f.items[req.UserID], item)
	return &item, nil
}

func (f *fakeCart) UpdateCartItem(_ context.Context, cartItemID, quantity int) (*entity.CartItem, error) {
	for userID, items := range f.items {
		for i := range items {
			if items[i].ID == cartItemID {
				f.items[userID][i].Quantity = quantity
				item := f.items[userID][i]
				return &item, nil
			}
		}
	}
	return nil, apierr.ErrNotFound
}

func (f *fakeCart) RemoveCartItem(_ context.Context, cartItemID int) error {
	for userID, items := range f.items {
		for i := range items {
			if items[i].ID == cartItemID {
				f.items[userID] = append(items[:i:i], items[i+1:]...)
				return nil
			}
		}
	}
	return apierr.ErrNotFound
}

func (f *fakeCart) ClearCart(_ context.Context, userID int) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.items[userID] = nil
	return nil
}

type fakeInventory struct {
	records map[int]*entity.Inventory
	commits int
}

func (f *fakeInventory) GetInventory(_ context.Context, productID int) (*entity.Inventory, error) {
	inv, ok := f.records[productID]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (f *fakeInventory) BatchInventory(ctx context.Context, productIDs []int) ([]entity.Inventory, error) {
	var out []entity.Inventory
	for _, id := range productIDs {
		if inv, err := f.GetInventory(ctx, id); err == nil {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInventory) SetStock(_ context.Context, productID, quantity int) (*entity.Inventory, error) {
	f.commits++
	f.records[productID].StockQuantity = quantity
	c := *f.records[productID]
	return &c, nil
}

func (f *fakeInventory) AdjustStock(_ context.Context, productID int, op client.StockOp, quantity int) (*entity.Inventory, error) {
	f.commits++
	next, err := applyStock(*f.records[productID], op, quantity)
	if err != nil {
		return nil, err
	}
	*f.records[productID] = next
	return &next, nil
}

func (f *fakeInventory) SetReorderLevel(_ context.Context, productID, level int) (*entity.Inventory, error) {
	f.commits++
	f.records[productID].ReorderLevel = level
	c := *f.records[productID]
	return &c, nil
}

func (f *fakeInventory) OutOfStock(context.Context) ([]entity.Inventory, error) {
	var out []entity.Inventory
	for _, inv := range f.records {
		if inv.StockQuantity == 0 {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInventory) LowStock(context.Context) ([]entity.Inventory, error) {
	var out []entity.Inventory
	for _, inv := range f.records {
		if inv.IsLowStock() {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type tagLog struct {
	tags []string
}

func (l *tagLog) Invalidate(_ context.Context, tags ...string) error {
	l.tags = append(l.tags, tags...)
	return nil
}

type fakeAddresses struct {
	byID   map[int]*entity.Address
	nextID int
}

func (f *fakeAddresses) Addresses(_ context.Context, userID int) ([]entity.Address, error) {
	var out []entity.Address
	for id := 1; id <= f.nextID; id++ {
		if a, ok := f.byID[id]; ok && a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAddresses) GetAddress(_ context.Context, id int) (*entity.Address, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAddresses) CreateAddress(_ context.Context, a entity.Address) (*entity.Address, error) {
	f.nextID++
	a.ID = f.nextID
	a.Default = false
	f.byID[a.ID] = &a
	return &a, nil
}

func (f *fakeAddresses) UpdateAddress(_ context.Context, id int, a entity.Address) (*entity.Address, error) {
	a.ID = id
	a.Default = f.byID[id].Default
	f.byID[id] = &a
	return &a, nil
}

func (f *fakeAddresses) DeleteAddress(_ context.Context, id int) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeAddresses) SetDefaultAddress(_ context.Context, id int) (*entity.Address, error) {
	owner := f.byID[id].UserID
	for _, a := range f.byID {
		if a.UserID == owner {
			a.Default = a.ID == id
		}
	}
	c := *f.byID[id]
	return &c, nil
}

type fakeNotifications struct {
	saved     []entity.Notification
	dismissed []string
}

func (f *fakeNotifications) Create(_ context.Context, n *entity.Notification) error {
	f.saved = append(f.saved, *n)
	return nil
}

func (f *fakeNotifications) ListActive(_ context.Context, userID, limit int) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, n := range f.saved {
		if n.UserID == userID && !n.Dismissed && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) Dismiss(_ context.Context, userID int, id string) error {
	for i := range f.saved {
		if f.saved[i].ID == id && f.saved[i].UserID == userID {
			f.saved[i].Dismissed = true
			f.dismissed = append(f.dismissed, id)
			return nil
		}
	}
	return apierr.ErrNotFound
}

func (f *fakeNotifications) DismissAll(_ context.Context, userID int) (int64, error) {
	var n int64
	for i := range f.saved {
		if f.saved[i].UserID == userID && !f.saved[i].Dismissed {
			f.saved[i].Dismissed = true
			n++
		}
	}
	return n, nil
}
