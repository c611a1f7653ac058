// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// Handlers groups every route handler
type Handlers struct {
	Auth          *handlers.AuthHandler
	Products      *handlers.ProductHandler
	Cart          *handlers.CartHandler
	Checkout      *handlers.CheckoutHandler
	Orders        *handlers.OrderHandler
	Notifications *handlers.NotificationHandler
}

// SetupRoutes registers all /api/v1 routes. requireAuth resolves the bearer
// session; every group except auth and products sits behind it.
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, requireAuth gin.HandlerFunc) {
	SetupAuthRoutes(rg, h.Auth, requireAuth)
	SetupProductRoutes(rg, h.Products)
	SetupCartRoutes(rg, h.Cart, requireAuth)
	SetupOrderRoutes(rg, h.Checkout, h.Orders, requireAuth)
	SetupNotificationRoutes(rg, h.Notifications, requireAuth)
	SetupAdminRoutes(rg, h.Products, h.Orders, requireAuth)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("")
		protected.Use(requireAuth)
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/me", authHandler.Me)
			protected.PUT("/me", authHandler.UpdateMe)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

// SetupProductRoutes sets up public catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/featured", productHandler.GetFeatured)
		products.GET("/search", productHandler.Search)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// SetupCartRoutes sets up cart and wishlist routes
func SetupCartRoutes(rg *gin.RouterGroup, cartHandler *handlers.CartHandler, requireAuth gin.HandlerFunc) {
	cart := rg.Group("/cart")
	cart.Use(requireAuth)
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:productId", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:productId", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
	}

	wishlist := rg.Group("/wishlist")
	wishlist.Use(requireAuth)
	{
		wishlist.GET("", cartHandler.GetWishlist)
		wishlist.POST("/:productId", cartHandler.AddToWishlist)
		wishlist.DELETE("/:productId", cartHandler.RemoveFromWishlist)
	}
}

// SetupOrderRoutes sets up checkout and order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, checkoutHandler *handlers.CheckoutHandler, orderHandler *handlers.OrderHandler, requireAuth gin.HandlerFunc) {
	checkout := rg.Group("/checkout")
	checkout.Use(requireAuth)
	{
		checkout.GET("/quote", checkoutHandler.GetQuote)
		checkout.POST("", checkoutHandler.PlaceOrder)
	}

	orders := rg.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:number", orderHandler.GetOrder)
		orders.GET("/:number/invoice", orderHandler.DownloadInvoice)
	}
}

// SetupNotificationRoutes sets up the notification feed routes
func SetupNotificationRoutes(rg *gin.RouterGroup, notificationHandler *handlers.NotificationHandler, requireAuth gin.HandlerFunc) {
	notifications := rg.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.DELETE("", notificationHandler.ClearNotifications)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, productHandler *handlers.ProductHandler, orderHandler *handlers.OrderHandler, requireAuth gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(requireAuth)
	admin.Use(middleware.AdminMiddleware())
	{
		products := admin.Group("/products")
		{
			products.POST("", productHandler.AdminCreateProduct)
			products.PUT("/:id", productHandler.AdminUpdateProduct)
			products.DELETE("/:id", productHandler.AdminDeleteProduct)
			products.POST("/:id/images", productHandler.AdminUploadImage)
			products.DELETE("/:id/images/:imageId", productHandler.AdminDeleteImage)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.AdminGetOrders)
			orders.PUT("/:number/status", orderHandler.AdminUpdateStatus)
		}
	}
}
