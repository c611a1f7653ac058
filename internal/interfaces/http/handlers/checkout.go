// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// CheckoutService prices carts and places orders
type CheckoutService interface {
	Quote(ctx context.Context, identity *user.Identity) (*checkout.Quote, error)
	PlaceOrder(ctx context.Context, identity *user.Identity, req *checkout.PlaceOrderRequest) (*checkout.Result, error)
}

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkout CheckoutService
	log      logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout CheckoutService, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		log:      log,
	}
}

// GetQuote handles GET /checkout/quote
func (h *CheckoutHandler) GetQuote(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	quote, err := h.checkout.Quote(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err, "Failed to price cart")
		return
	}

	respondOK(c, http.StatusOK, "Checkout summary retrieved successfully", quote)
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req checkout.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	result, err := h.checkout.PlaceOrder(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to place order")
		return
	}

	message := "Order placed successfully"
	if !result.CartCleared {
		message = "Order placed successfully, but the cart could not be cleared"
	}
	respondOK(c, http.StatusCreated, message, result)
}
