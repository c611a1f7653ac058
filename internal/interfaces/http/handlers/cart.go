// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// CartService is the cart session store as seen by the HTTP layer
type CartService interface {
	Get(ctx context.Context, identity *user.Identity) (*cart.View, error)
	Add(ctx context.Context, identity *user.Identity, productID uint, quantity int, variant cart.Variant) (*cart.View, error)
	Remove(ctx context.Context, identity *user.Identity, productID uint, variant cart.Variant) (*cart.View, error)
	UpdateQuantity(ctx context.Context, identity *user.Identity, productID uint, quantity int, variant cart.Variant) (*cart.View, error)
	Clear(ctx context.Context, identity *user.Identity) error
	Wishlist(ctx context.Context, identity *user.Identity) ([]cart.ProductSnapshot, error)
	AddToWishlist(ctx context.Context, identity *user.Identity, productID uint) error
	RemoveFromWishlist(ctx context.Context, identity *user.Identity, productID uint) error
}

// AddToCartRequest represents a new cart line
type AddToCartRequest struct {
	ProductID uint         `json:"product_id" binding:"required"`
	Quantity  int          `json:"quantity" binding:"required"`
	Variant   cart.Variant `json:"variant"`
}

// UpdateCartItemRequest represents a quantity change
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles cart and wishlist endpoints
type CartHandler struct {
	carts CartService
	log   logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	view, err := h.carts.Get(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve cart")
		return
	}

	respondOK(c, http.StatusOK, "Cart retrieved successfully", view)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	view, err := h.carts.Add(c.Request.Context(), identity, req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		respondError(c, h.log, err, "Failed to add item to cart")
		return
	}

	respondOK(c, http.StatusOK, "Item added to cart successfully", view)
}

// UpdateCartItem handles PUT /cart/items/:productId?variant[size]=M
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	view, err := h.carts.UpdateQuantity(c.Request.Context(), identity, productID, req.Quantity, variantFromQuery(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to update cart item")
		return
	}

	respondOK(c, http.StatusOK, "Cart item updated successfully", view)
}

// RemoveFromCart handles DELETE /cart/items/:productId?variant[size]=M
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	view, err := h.carts.Remove(c.Request.Context(), identity, productID, variantFromQuery(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to remove item from cart")
		return
	}

	respondOK(c, http.StatusOK, "Item removed from cart successfully", view)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), identity); err != nil {
		respondError(c, h.log, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetWishlist handles GET /wishlist
func (h *CartHandler) GetWishlist(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	items, err := h.carts.Wishlist(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve wishlist")
		return
	}

	respondOK(c, http.StatusOK, "Wishlist retrieved successfully", gin.H{
		"items":      items,
		"item_count": len(items),
	})
}

// AddToWishlist handles POST /wishlist/:productId
func (h *CartHandler) AddToWishlist(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	if err := h.carts.AddToWishlist(c.Request.Context(), identity, productID); err != nil {
		respondError(c, h.log, err, "Failed to add item to wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to wishlist successfully",
	})
}

// RemoveFromWishlist handles DELETE /wishlist/:productId
func (h *CartHandler) RemoveFromWishlist(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	if err := h.carts.RemoveFromWishlist(c.Request.Context(), identity, productID); err != nil {
		respondError(c, h.log, err, "Failed to remove item from wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from wishlist successfully",
	})
}

// variantFromQuery reads variant[key]=value pairs
func variantFromQuery(c *gin.Context) cart.Variant {
	values := c.QueryMap("variant")
	if len(values) == 0 {
		return nil
	}
	return cart.Variant(values)
}
