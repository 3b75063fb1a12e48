package api

import (
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"storefront/internal/entity"
	"storefront/internal/session"
)

type Handlers struct {
	Auth           *AuthHandler
	AdminOrders    *OrderHandler
	CustomerOrders *OrderHandler
	Cart           *CartHandler
	Catalog        *CatalogHandler
	Account        *AccountHandler
}

// RateLimiter limits each client address to limit requests per second.
func RateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(limit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	})
}

func Register(e *echo.Echo, h Handlers, staticDir string) {
	e.GET("/health", Health("storefront"))

	auth := e.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	e.GET("/oauth2/callback", h.Auth.OAuth2Callback)

	public := e.Group("/api")
	public.GET("/products", h.Catalog.ListProducts)
	public.GET("/products/:id", h.Catalog.GetProduct)
	public.GET("/products/:id/reviews", h.Catalog.ProductReviews)
	public.GET("/categories", h.Catalog.ListCategories)
	public.GET("/categories/:id", h.Catalog.GetCategory)

	signedIn := e.Group("/api", h.Auth.Authenticated)
	signedIn.GET("/notifications", h.Account.Notifications)
	signedIn.DELETE("/notifications", h.Account.DismissAllNotifications)
	signedIn.DELETE("/notifications/:id", h.Account.DismissNotification)
	signedIn.POST("/reviews/:id/helpful", h.Account.MarkReviewHelpful)

	customer := e.Group("/api/customer", session.RequireRole(entity.RoleCustomer))
	customer.GET("/orders", h.CustomerOrders.ListOrders)
	customer.GET("/orders/:id", h.CustomerOrders.GetOrder)
	customer.PUT("/orders/:id", h.CustomerOrders.UpdateOrder)
	customer.DELETE("/orders/:id", h.CustomerOrders.DeleteOrder)
	customer.POST("/orders/:id/cancel", h.CustomerOrders.CancelOrder)
	customer.GET("/cart", h.Cart.GetCart)
	customer.DELETE("/cart", h.Cart.ClearCart)
	customer.POST("/cart/items", h.Cart.AddItem)
	customer.PUT("/cart/items/:id", h.Cart.UpdateItem)
	customer.DELETE("/cart/items/:id", h.Cart.RemoveItem)
	customer.POST("/cart/checkout", h.Cart.Checkout)
	customer.GET("/addresses", h.Account.ListAddresses)
	customer.POST("/addresses", h.Account.CreateAddress)
	customer.PUT("/addresses/:id", h.Account.UpdateAddress)
	customer.DELETE("/addresses/:id", h.Account.DeleteAddress)
	customer.POST("/addresses/:id/default", h.Account.SetDefaultAddress)
	customer.GET("/reviews", h.Account.MyReviews)
	customer.POST("/reviews", h.Account.CreateReview)
	customer.PUT("/reviews/:id", h.Account.UpdateReview)
	customer.DELETE("/reviews/:id", h.Account.DeleteReview)
	customer.GET("/profile", h.Account.Profile)
	customer.PUT("/profile", h.Account.UpdateProfile)

	admin := e.Group("/api/admin", session.RequireRole(entity.RoleAdmin))
	admin.GET("/orders", h.AdminOrders.ListOrders)
	admin.GET("/orders/:id", h.AdminOrders.GetOrder)
	admin.POST("/orders/:id/actions/:action", h.AdminOrders.ApplyAction)
	admin.PUT("/orders/:id/status", h.AdminOrders.UpdateStatus)
	admin.GET("/products", h.Catalog.ListProducts)
	admin.POST("/products", h.Catalog.CreateProduct)
	admin.PUT("/products/:id", h.Catalog.UpdateProduct)
	admin.PUT("/products/:id/price", h.Catalog.SetPrice)
	admin.PUT("/products/:id/active", h.Catalog.SetActive)
	admin.DELETE("/products/:id", h.Catalog.DeleteProduct)
	admin.POST("/categories", h.Catalog.CreateCategory)
	admin.PUT("/categories/:id", h.Catalog.UpdateCategory)
	admin.DELETE("/categories/:id", h.Catalog.DeleteCategory)
	admin.GET("/inventory", h.Catalog.ListInventory)
	admin.GET("/inventory/low-stock", h.Catalog.LowStock)
	admin.GET("/inventory/out-of-stock", h.Catalog.OutOfStock)
	admin.GET("/inventory/:productId", h.Catalog.GetInventory)
	admin.PUT("/inventory/:productId/stock", h.Catalog.SetStock)
	admin.PUT("/inventory/:productId/reorder-level", h.Catalog.SetReorderLevel)
	admin.POST("/inventory/:productId/:op", h.Catalog.AdjustStock)
	admin.GET("/users", h.Account.ListUsers)
	admin.GET("/users/:id", h.Account.GetUser)
	admin.PUT("/users/:id", h.Account.UpdateUser)
	admin.DELETE("/users/:id", h.Account.DeleteUser)
	admin.GET("/reviews", h.Account.AllReviews)
	admin.DELETE("/reviews/:id", h.Account.DeleteReview)
	admin.GET("/audit-logs", h.Account.ListAuditLogs)

	if staticDir != "" {
		registerPages(e, staticDir)
	}
}

// registerPages serves the browser app. Every page route returns index.html;
// the dashboards sit behind the role guard.
func registerPages(e *echo.Echo, dir string) {
	index := filepath.Join(dir, "index.html")
	page := func(c echo.Context) error { return c.File(index) }

	e.Static("/assets", filepath.Join(dir, "assets"))
	e.GET("/", page)
	e.GET(session.LoginPath, page)
	e.GET("/register", page)
	e.GET("/products", page)
	e.GET("/products/*", page)

	admin := e.Group("/admin", session.RequireRole(entity.RoleAdmin))
	admin.GET("/*", page)
	customer := e.Group("/customer", session.RequireRole(entity.RoleCustomer))
	customer.GET("/*", page)
}
