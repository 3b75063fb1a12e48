package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/mutate"
	"storefront/internal/service"
)

type CatalogHandler struct {
	*Responder
	catalog   *service.CatalogService
	inventory *service.InventoryService
	reviews   *service.ReviewService
}

func NewCatalogHandler(r *Responder, catalog *service.CatalogService, inventory *service.InventoryService, reviews *service.ReviewService) *CatalogHandler {
	return &CatalogHandler{Responder: r, catalog: catalog, inventory: inventory, reviews: reviews}
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	q, err := listQuery(c, listing.ProductQuery())
	if err != nil {
		return h.failList(c, "Loading products failed", err)
	}
	list, err := h.catalog.Products(c.Request().Context(), actor(c), q)
	if err != nil {
		return h.failList(c, "Loading products failed", err)
	}
	return listJSON(c, list)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Loading product failed", err)
	}
	p, err := h.catalog.Product(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "Loading product failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) ProductReviews(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Loading reviews failed", err)
	}
	reviews, err := h.reviews.ForProduct(c.Request().Context(), id)
	if err != nil {
		return h.failList(c, "Loading reviews failed", err)
	}
	return c.JSON(http.StatusOK, nonNil(reviews))
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var p entity.Product
	if err := bind(c, &p); err != nil {
		return h.fail(c, "Saving product failed", err)
	}
	created, err := h.catalog.CreateProduct(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "Saving product failed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Saving product failed", err)
	}
	var p entity.Product
	if err := bind(c, &p); err != nil {
		return h.fail(c, "Saving product failed", err)
	}
	updated, err := h.catalog.UpdateProduct(c.Request().Context(), id, p)
	if err != nil {
		return h.fail(c, "Saving product failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (h *CatalogHandler) SetPrice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Price update failed", err)
	}
	var req priceRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Price update failed", err)
	}
	p, err := h.catalog.SetPrice(c.Request().Context(), id, req.Price)
	if err != nil {
		return h.fail(c, "Price update failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (h *CatalogHandler) SetActive(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Product update failed", err)
	}
	var req activeRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Product update failed", err)
	}
	p, err := h.catalog.SetActive(c.Request().Context(), id, req.Active)
	if err != nil {
		return h.fail(c, "Product update failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return h.fail(c, "Delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	cats, err := h.catalog.Categories(c.Request().Context())
	if err != nil {
		return h.failList(c, "Loading categories failed", err)
	}
	return c.JSON(http.StatusOK, nonNil(cats))
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Loading category failed", err)
	}
	cat, err := h.catalog.Category(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "Loading category failed", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var cat entity.Category
	if err := bind(c, &cat); err != nil {
		return h.fail(c, "Saving category failed", err)
	}
	created, err := h.catalog.CreateCategory(c.Request().Context(), cat)
	if err != nil {
		return h.fail(c, "Saving category failed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Saving category failed", err)
	}
	var cat entity.Category
	if err := bind(c, &cat); err != nil {
		return h.fail(c, "Saving category failed", err)
	}
	updated, err := h.catalog.UpdateCategory(c.Request().Context(), id, cat)
	if err != nil {
		return h.fail(c, "Saving category failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	if err := h.catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return h.fail(c, "Delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListInventory returns the records for ?ids=1,2,3.
func (h *CatalogHandler) ListInventory(c echo.Context) error {
	var ids []int
	for _, s := range strings.Split(c.QueryParam("ids"), ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			return h.fail(c, "Loading inventory failed", apierr.Invalid("ids", "Invalid product id list"))
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return h.fail(c, "Loading inventory failed", apierr.Invalid("ids", "At least one product id is required"))
	}
	items, err := h.inventory.Batch(c.Request().Context(), ids)
	if err != nil {
		return h.failList(c, "Loading inventory failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) GetInventory(c echo.Context) error {
	id, err := pathID(c, "productId")
	if err != nil {
		return h.fail(c, "Loading inventory failed", err)
	}
	inv, err := h.inventory.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "Loading inventory failed", err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *CatalogHandler) LowStock(c echo.Context) error {
	items, err := h.inventory.LowStock(c.Request().Context())
	if err != nil {
		return h.failList(c, "Loading low stock failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) OutOfStock(c echo.Context) error {
	items, err := h.inventory.OutOfStock(c.Request().Context())
	if err != nil {
		return h.failList(c, "Loading out of stock failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

type quantityRequest struct {
	Quantity     int `json:"quantity"`
	ReorderLevel int `json:"reorderLevel"`
}

func (h *CatalogHandler) AdjustStock(c echo.Context) error {
	id, err := pathID(c, "productId")
	if err != nil {
		return h.fail(c, "Stock update failed", err)
	}
	var req quantityRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Stock update failed", err)
	}
	inv, err := h.inventory.Adjust(c.Request().Context(), id, client.StockOp(c.Param("op")), req.Quantity)
	return h.stockResult(c, inv, err)
}

func (h *CatalogHandler) SetStock(c echo.Context) error {
	id, err := pathID(c, "productId")
	if err != nil {
		return h.fail(c, "Stock update failed", err)
	}
	var req quantityRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Stock update failed", err)
	}
	inv, err := h.inventory.SetStock(c.Request().Context(), id, req.Quantity)
	return h.stockResult(c, inv, err)
}

func (h *CatalogHandler) SetReorderLevel(c echo.Context) error {
	id, err := pathID(c, "productId")
	if err != nil {
		return h.fail(c, "Reorder level update failed", err)
	}
	var req quantityRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Reorder level update failed", err)
	}
	inv, err := h.inventory.SetReorderLevel(c.Request().Context(), id, req.ReorderLevel)
	return h.stockResult(c, inv, err)
}

func (h *CatalogHandler) stockResult(c echo.Context, inv *service.InventoryView, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, inv)
	case errors.Is(err, mutate.ErrReconcile):
		c.Response().Header().Set("Warning", `199 - "stock may be out of date"`)
		return c.JSON(http.StatusOK, inv)
	}
	if inv != nil && inv.ProductID != 0 {
		return h.failWith(c, "Stock update failed", err, inv)
	}
	return h.fail(c, "Stock update failed", err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
