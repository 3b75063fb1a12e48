package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/listing"
)

const orderFields = `
	orderId
	userId
	totalAmount
	status
	paymentStatus
	orderDate
	shippingAddress
	paymentMethod
	notes
	user { firstName lastName email }
	orderItems { orderItemId productId productName quantity unitPrice subtotal }`

const productFields = `
	productId
	productName
	description
	price
	costPrice
	sku
	brand
	imageUrl
	isActive
	stockQuantity
	reorderLevel
	category { categoryId categoryName }
	createdAt`

const pageInfoFields = `pageInfo { page size totalElements totalPages }`

var (
	opOrders = Operation{Name: "GetOrders", Field: "orders", Tags: []string{TagOrders}, Document: `
query GetOrders($userId: ID, $filter: OrderFilterInput, $page: Int, $size: Int, $sortBy: String, $sortDirection: String) {
  orders(userId: $userId, filter: $filter, page: $page, size: $size, sortBy: $sortBy, sortDirection: $sortDirection) {
    orders {` + orderFields + `
    }
    ` + pageInfoFields + `
  }
}`}

	opOrder = Operation{Name: "GetOrderById", Field: "order", Tags: []string{TagOrders}, Document: `
query GetOrderById($id: ID!) {
  order(id: $id) {` + orderFields + `
  }
}`}

	opProducts = Operation{Name: "GetProducts", Field: "products", Tags: []string{TagProducts, TagInventory}, Document: `
query GetProducts($filter: ProductFilterInput, $page: Int, $size: Int, $sortBy: String, $sortDirection: String) {
  products(filter: $filter, page: $page, size: $size, sortBy: $sortBy, sortDirection: $sortDirection) {
    products {` + productFields + `
    }
    ` + pageInfoFields + `
  }
}`}

	opCategories = Operation{Name: "GetCategories", Field: "categories", Tags: []string{TagCategories}, Document: `
query GetCategories {
  categories { categoryId categoryName description parentCategoryId }
}`}

	opUsers = Operation{Name: "GetUsers", Field: "users", Tags: []string{TagUsers}, Document: `
query GetUsers($page: Int, $size: Int) {
  users(page: $page, size: $size) {
    users { userId username email firstName lastName phone userType createdAt }
    ` + pageInfoFields + `
  }
}`}

	opLowStock = Operation{Name: "GetLowStockProducts", Field: "lowStockProducts", Tags: []string{TagInventory}, Document: `
query GetLowStockProducts {
  lowStockProducts {
    inventoryId stockQuantity reservedQuantity reorderLevel
    product { productId productName }
  }
}`}

	opUpdateOrderStatus = Operation{Name: "UpdateOrderStatus", Field: "updateOrderStatus", Tags: []string{TagOrders, TagInventory}, Document: `
mutation UpdateOrderStatus($id: ID!, $status: String!) {
  updateOrderStatus(id: $id, status: $status) {` + orderFields + `
  }
}`}

	opSimulatePayment = Operation{Name: "SimulatePayment", Field: "simulatePayment", Tags: []string{TagOrders}, Document: `
mutation SimulatePayment($id: ID!, $transactionId: String!) {
  simulatePayment(id: $id, transactionId: $transactionId) {` + orderFields + `
  }
}`}

	opUpdateOrder = Operation{Name: "UpdateOrder", Field: "updateOrder", Tags: []string{TagOrders}, Document: `
mutation UpdateOrder($id: ID!, $input: UpdateOrderInput!) {
  updateOrder(id: $id, input: $input) {` + orderFields + `
  }
}`}

	opDeleteOrder = Operation{Name: "DeleteOrder", Field: "deleteOrder", Tags: []string{TagOrders, TagInventory}, Document: `
mutation DeleteOrder($id: ID!) {
  deleteOrder(id: $id)
}`}

	opCreateProduct = Operation{Name: "CreateProduct", Field: "createProduct", Tags: []string{TagProducts, TagCategories}, Document: `
mutation CreateProduct($input: CreateProductInput!) {
  createProduct(input: $input) {` + productFields + `
  }
}`}

	opUpdateProduct = Operation{Name: "UpdateProduct", Field: "updateProduct", Tags: []string{TagProducts, TagCategories}, Document: `
mutation UpdateProduct($id: ID!, $input: UpdateProductInput!) {
  updateProduct(id: $id, input: $input) {` + productFields + `
  }
}`}

	opDeleteProduct = Operation{Name: "DeleteProduct", Field: "deleteProduct", Tags: []string{TagProducts, TagCategories, TagInventory}, Document: `
mutation DeleteProduct($id: ID!) {
  deleteProduct(id: $id)
}`}

	opCreateCategory = Operation{Name: "CreateCategory", Field: "createCategory", Tags: []string{TagCategories}, Document: `
mutation CreateCategory($input: CreateCategoryInput!) {
  createCategory(input: $input) { categoryId categoryName description parentCategoryId }
}`}

	opUpdateCategory = Operation{Name: "UpdateCategory", Field: "updateCategory", Tags: []string{TagCategories, TagProducts}, Document: `
mutation UpdateCategory($id: ID!, $input: UpdateCategoryInput!) {
  updateCategory(id: $id, input: $input) { categoryId categoryName description parentCategoryId }
}`}

	opDeleteCategory = Operation{Name: "DeleteCategory", Field: "deleteCategory", Tags: []string{TagCategories, TagProducts}, Document: `
mutation DeleteCategory($id: ID!) {
  deleteCategory(id: $id)
}`}

	opAddToCart = Operation{Name: "AddToCart", Field: "addToCart", Tags: []string{TagCart}, Document: `
mutation AddToCart($userId: ID!, $productId: ID!, $quantity: Int!) {
  addToCart(userId: $userId, productId: $productId, quantity: $quantity) {
    cartItemId quantity
    product { productId productName price }
  }
}`}

	opRemoveFromCart = Operation{Name: "RemoveFromCart", Field: "removeFromCart", Tags: []string{TagCart}, Document: `
mutation RemoveFromCart($cartItemId: ID!) {
  removeFromCart(cartItemId: $cartItemId)
}`}

	opUpdateStock = stockOperation("UpdateStock", "updateStock")
	opReserveStock = stockOperation("ReserveStock", "reserveStock")
	opReleaseStock = stockOperation("ReleaseStock", "releaseStock")
)

func stockOperation(name, field string) Operation {
	return Operation{Name: name, Field: field, Tags: []string{TagInventory, TagProducts}, Document: `
mutation ` + name + `($productId: ID!, $quantity: Int!) {
  ` + field + `(productId: $productId, quantity: $quantity) {
    inventoryId stockQuantity reservedQuantity reorderLevel
    product { productId productName }
  }
}`}
}

// gqlID decodes GraphQL ID values, which arrive as strings, as well as plain numbers.
type gqlID int

func (i *gqlID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("graphql id %s: %w", b, err)
	}
	*i = gqlID(n)
	return nil
}

type gqlCategory struct {
	CategoryID       gqlID  `json:"categoryId"`
	CategoryName     string `json:"categoryName"`
	Description      string `json:"description"`
	ParentCategoryID *gqlID `json:"parentCategoryId"`
}

func (c gqlCategory) toEntity() entity.Category {
	out := entity.Category{ID: int(c.CategoryID), Name: c.CategoryName, Description: c.Description}
	if c.ParentCategoryID != nil {
		parent := int(*c.ParentCategoryID)
		out.ParentCategoryID = &parent
	}
	return out
}

type gqlProduct struct {
	ProductID     gqlID            `json:"productId"`
	ProductName   string           `json:"productName"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	CostPrice     decimal.Decimal  `json:"costPrice"`
	SKU           string           `json:"sku"`
	Brand         string           `json:"brand"`
	ImageURL      string           `json:"imageUrl"`
	Active        bool             `json:"isActive"`
	StockQuantity int              `json:"stockQuantity"`
	ReorderLevel  int              `json:"reorderLevel"`
	Category      *gqlCategory     `json:"category"`
	CreatedAt     entity.Timestamp `json:"createdAt"`
}

func (p gqlProduct) toEntity() entity.Product {
	out := entity.Product{
		ID:            int(p.ProductID),
		Name:          p.ProductName,
		Description:   p.Description,
		Price:         p.Price,
		CostPrice:     p.CostPrice,
		SKU:           p.SKU,
		Brand:         p.Brand,
		ImageURL:      p.ImageURL,
		Active:        p.Active,
		StockQuantity: p.StockQuantity,
		ReorderLevel:  p.ReorderLevel,
		CreatedAt:     p.CreatedAt,
	}
	if p.Category != nil {
		out.CategoryID = int(p.Category.CategoryID)
		out.CategoryName = p.Category.CategoryName
	}
	return out
}

type gqlOrderItem struct {
	OrderItemID gqlID           `json:"orderItemId"`
	ProductID   gqlID           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type gqlOrder struct {
	OrderID         gqlID            `json:"orderId"`
	UserID          gqlID            `json:"userId"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"paymentStatus"`
	OrderDate       entity.Timestamp `json:"orderDate"`
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	Notes           string           `json:"notes"`
	User            *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user"`
	Items []gqlOrderItem `json:"orderItems"`
}

func (o gqlOrder) toEntity() entity.Order {
	order := entity.Order{
		ID:              int(o.OrderID),
		UserID:          int(o.UserID),
		OrderDate:       o.OrderDate,
		TotalAmount:     o.TotalAmount,
		Status:          entity.OrderStatus(o.Status),
		PaymentStatus:   entity.PaymentStatus(o.PaymentStatus),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		Items:           make([]entity.OrderItem, 0, len(o.Items)),
	}
	if o.User != nil {
		order.UserName = strings.TrimSpace(o.User.FirstName + " " + o.User.LastName)
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ID:          int(item.OrderItemID),
			ProductID:   int(item.ProductID),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return order
}

type gqlUser struct {
	UserID    gqlID            `json:"userId"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Phone     string           `json:"phone"`
	Role      entity.Role      `json:"userType"`
	CreatedAt entity.Timestamp `json:"createdAt"`
}

type gqlInventory struct {
	InventoryID      gqlID       `json:"inventoryId"`
	StockQuantity    int         `json:"stockQuantity"`
	ReservedQuantity int         `json:"reservedQuantity"`
	ReorderLevel     int         `json:"reorderLevel"`
	Product          *gqlProduct `json:"product"`
}

func (i gqlInventory) toEntity() entity.Inventory {
	inv := entity.Inventory{
		ID:               int(i.InventoryID),
		StockQuantity:    i.StockQuantity,
		ReservedQuantity: i.ReservedQuantity,
		ReorderLevel:     i.ReorderLevel,
	}
	if i.Product != nil {
		inv.ProductID = int(i.Product.ProductID)
		inv.ProductName = i.Product.ProductName
	}
	return inv
}

// OrderConnection is a page of orders as GraphQL returns it.
type OrderConnection struct {
	Orders   []entity.Order   `json:"orders"`
	PageInfo listing.PageInfo `json:"pageInfo"`
}

type ProductConnection struct {
	Products []entity.Product `json:"products"`
	PageInfo listing.PageInfo `json:"pageInfo"`
}

type UserConnection struct {
	Users    []entity.User    `json:"users"`
	PageInfo listing.PageInfo `json:"pageInfo"`
}

func pageVars(q listing.Query) map[string]any {
	q = q.Normalize()
	vars := map[string]any{"page": q.Page, "size": q.Size}
	if q.SortBy != "" {
		vars["sortBy"] = q.SortBy
		vars["sortDirection"] = string(q.Direction)
	}
	return vars
}

func orderFilterInput(f listing.Filter) map[string]any {
	in := map[string]any{}
	if f.Status != "" {
		in["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		in["paymentStatus"] = f.PaymentStatus
	}
	if f.Search != "" {
		in["searchTerm"] = f.Search
	}
	if f.StartDate != nil {
		in["startDate"] = entity.NewTimestamp(*f.StartDate)
	}
	if f.EndDate != nil {
		in["endDate"] = entity.NewTimestamp(*f.EndDate)
	}
	if len(in) == 0 {
		return nil
	}
	return in
}

func (g *GraphQL) Orders(ctx context.Context, q listing.Query) (*OrderConnection, error) {
	vars := pageVars(q)
	if q.Filter.UserID != nil {
		vars["userId"] = strconv.Itoa(*q.Filter.UserID)
	}
	if in := orderFilterInput(q.Filter); in != nil {
		vars["filter"] = in
	}

	var raw struct {
		Orders   []gqlOrder       `json:"orders"`
		PageInfo listing.PageInfo `json:"pageInfo"`
	}
	if err := g.Query(ctx, opOrders, vars, &raw); err != nil {
		return nil, err
	}
	conn := &OrderConnection{PageInfo: raw.PageInfo, Orders: make([]entity.Order, 0, len(raw.Orders))}
	for _, o := range raw.Orders {
		order := o.toEntity()
		if err := order.Validate(); err != nil {
			return nil, err
		}
		conn.Orders = append(conn.Orders, order)
	}
	return conn, nil
}

func (g *GraphQL) Order(ctx context.Context, id int) (*entity.Order, error) {
	var raw gqlOrder
	if err := g.Query(ctx, opOrder, map[string]any{"id": strconv.Itoa(id)}, &raw); err != nil {
		return nil, err
	}
	return validOrder(raw)
}

// FetchOrder reads an order from the network, skipping the cache.
func (g *GraphQL) FetchOrder(ctx context.Context, id int) (*entity.Order, error) {
	field, err := g.send(ctx, opOrder, map[string]any{"id": strconv.Itoa(id)}, g.token(ctx))
	if err != nil {
		return nil, err
	}
	var raw gqlOrder
	if err := json.Unmarshal(field, &raw); err != nil {
		return nil, err
	}
	return validOrder(raw)
}

func validOrder(raw gqlOrder) (*entity.Order, error) {
	order := raw.toEntity()
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *GraphQL) Products(ctx context.Context, q listing.Query) (*ProductConnection, error) {
	vars := pageVars(q)
	filter := map[string]any{}
	if q.Filter.Search != "" {
		filter["searchTerm"] = q.Filter.Search
	}
	if q.Filter.CategoryID != nil {
		filter["categoryId"] = *q.Filter.CategoryID
	}
	if len(filter) > 0 {
		vars["filter"] = filter
	}

	var raw struct {
		Products []gqlProduct     `json:"products"`
		PageInfo listing.PageInfo `json:"pageInfo"`
	}
	if err := g.Query(ctx, opProducts, vars, &raw); err != nil {
		return nil, err
	}
	conn := &ProductConnection{PageInfo: raw.PageInfo, Products: make([]entity.Product, 0, len(raw.Products))}
	for _, p := range raw.Products {
		product := p.toEntity()
		if err := product.Validate(); err != nil {
			return nil, err
		}
		conn.Products = append(conn.Products, product)
	}
	return conn, nil
}

func (g *GraphQL) Categories(ctx context.Context) ([]entity.Category, error) {
	var raw []gqlCategory
	if err := g.Query(ctx, opCategories, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]entity.Category, 0, len(raw))
	for _, c := range raw {
		out = append(out, c.toEntity())
	}
	return out, nil
}

func (g *GraphQL) Users(ctx context.Context, q listing.Query) (*UserConnection, error) {
	q = q.Normalize()
	var raw struct {
		Users    []gqlUser        `json:"users"`
		PageInfo listing.PageInfo `json:"pageInfo"`
	}
	if err := g.Query(ctx, opUsers, map[string]any{"page": q.Page, "size": q.Size}, &raw); err != nil {
		return nil, err
	}
	conn := &UserConnection{PageInfo: raw.PageInfo, Users: make([]entity.User, 0, len(raw.Users))}
	for _, u := range raw.Users {
		conn.Users = append(conn.Users, entity.User{
			ID:        int(u.UserID),
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}
	return conn, nil
}

func (g *GraphQL) LowStock(ctx context.Context) ([]entity.Inventory, error) {
	var raw []gqlInventory
	if err := g.Query(ctx, opLowStock, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]entity.Inventory, 0, len(raw))
	for _, i := range raw {
		out = append(out, i.toEntity())
	}
	return out, nil
}

func (g *GraphQL) UpdateOrderStatus(ctx context.Context, id int, status entity.OrderStatus) (*entity.Order, error) {
	var raw gqlOrder
	vars := map[string]any{"id": strconv.Itoa(id), "status": string(status)}
	if err := g.Mutate(ctx, opUpdateOrderStatus, vars, &raw); err != nil {
		return nil, err
	}
	return validOrder(raw)
}

func (g *GraphQL) SimulatePayment(ctx context.Context, id int, transactionID string) (*entity.Order, error) {
	var raw gqlOrder
	vars := map[string]any{"id": strconv.Itoa(id), "transactionId": transactionID}
	if err := g.Mutate(ctx, opSimulatePayment, vars, &raw); err != nil {
		return nil, err
	}
	return validOrder(raw)
}

func (g *GraphQL) UpdateOrder(ctx context.Context, id int, req UpdateOrderRequest) (*entity.Order, error) {
	var raw gqlOrder
	vars := map[string]any{"id": strconv.Itoa(id), "input": req}
	if err := g.Mutate(ctx, opUpdateOrder, vars, &raw); err != nil {
		return nil, err
	}
	return validOrder(raw)
}

func (g *GraphQL) DeleteOrder(ctx context.Context, id int) error {
	return g.Mutate(ctx, opDeleteOrder, map[string]any{"id": strconv.Itoa(id)}, nil)
}

// ProductInput is the create/update input of the product mutations.
type ProductInput struct {
	Name          string          `json:"productName"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	CategoryID    int             `json:"categoryId,omitempty"`
	SKU           string          `json:"sku,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	ReorderLevel  int             `json:"reorderLevel"`
}

func (g *GraphQL) CreateProduct(ctx context.Context, in ProductInput) (*entity.Product, error) {
	var raw gqlProduct
	if err := g.Mutate(ctx, opCreateProduct, map[string]any{"input": in}, &raw); err != nil {
		return nil, err
	}
	p := raw.toEntity()
	return &p, nil
}

func (g *GraphQL) UpdateProduct(ctx context.Context, id int, in ProductInput) (*entity.Product, error) {
	var raw gqlProduct
	if err := g.Mutate(ctx, opUpdateProduct, map[string]any{"id": strconv.Itoa(id), "input": in}, &raw); err != nil {
		return nil, err
	}
	p := raw.toEntity()
	return &p, nil
}

func (g *GraphQL) DeleteProduct(ctx context.Context, id int) error {
	return g.Mutate(ctx, opDeleteProduct, map[string]any{"id": strconv.Itoa(id)}, nil)
}

// CategoryInput is the create/update input of the category mutations.
type CategoryInput struct {
	Name             string `json:"categoryName"`
	Description      string `json:"description,omitempty"`
	ParentCategoryID *int   `json:"parentCategoryId,omitempty"`
}

func (g *GraphQL) CreateCategory(ctx context.Context, in CategoryInput) (*entity.Category, error) {
	var raw gqlCategory
	if err := g.Mutate(ctx, opCreateCategory, map[string]any{"input": in}, &raw); err != nil {
		return nil, err
	}
	c := raw.toEntity()
	return &c, nil
}

func (g *GraphQL) UpdateCategory(ctx context.Context, id int, in CategoryInput) (*entity.Category, error) {
	var raw gqlCategory
	if err := g.Mutate(ctx, opUpdateCategory, map[string]any{"id": strconv.Itoa(id), "input": in}, &raw); err != nil {
		return nil, err
	}
	c := raw.toEntity()
	return &c, nil
}

func (g *GraphQL) DeleteCategory(ctx context.Context, id int) error {
	return g.Mutate(ctx, opDeleteCategory, map[string]any{"id": strconv.Itoa(id)}, nil)
}

func (g *GraphQL) AddToCart(ctx context.Context, userID, productID, quantity int) error {
	vars := map[string]any{
		"userId":    strconv.Itoa(userID),
		"productId": strconv.Itoa(productID),
		"quantity":  quantity,
	}
	return g.Mutate(ctx, opAddToCart, vars, nil)
}

func (g *GraphQL) RemoveFromCart(ctx context.Context, cartItemID int) error {
	return g.Mutate(ctx, opRemoveFromCart, map[string]any{"cartItemId": strconv.Itoa(cartItemID)}, nil)
}

func (g *GraphQL) stock(ctx context.Context, op Operation, productID, quantity int) (*entity.Inventory, error) {
	var raw gqlInventory
	vars := map[string]any{"productId": strconv.Itoa(productID), "quantity": quantity}
	if err := g.Mutate(ctx, op, vars, &raw); err != nil {
		return nil, err
	}
	inv := raw.toEntity()
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (g *GraphQL) UpdateStock(ctx context.Context, productID, quantity int) (*entity.Inventory, error) {
	return g.stock(ctx, opUpdateStock, productID, quantity)
}

func (g *GraphQL) ReserveStock(ctx context.Context, productID, quantity int) (*entity.Inventory, error) {
	return g.stock(ctx, opReserveStock, productID, quantity)
}

func (g *GraphQL) ReleaseStock(ctx context.Context, productID, quantity int) (*entity.Inventory, error) {
	return g.stock(ctx, opReleaseStock, productID, quantity)
}
