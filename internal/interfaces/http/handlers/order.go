// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// OrderService reads and updates stored orders
type OrderService interface {
	GetByNumber(ctx context.Context, identity *user.Identity, number string) (*order.Order, error)
	ListForUser(ctx context.Context, identity *user.Identity, req *order.ListRequest) (*order.ListResponse, error)
	ListAll(ctx context.Context, req *order.ListRequest) (*order.ListResponse, error)
	UpdateStatus(ctx context.Context, number string, status order.Status, comment string, updatedBy uint) (*order.Order, error)
	Invoice(ctx context.Context, identity *user.Identity, number string) (*bytes.Buffer, error)
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  order.Status `json:"status" binding:"required"`
	Comment string       `json:"comment"`
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders OrderService
	log    logrus.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		log:    log,
	}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	response, err := h.orders.ListForUser(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve orders")
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// GetOrder handles GET /orders/:number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	o, err := h.orders.GetByNumber(c.Request.Context(), identity, c.Param("number"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve order")
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// DownloadInvoice handles GET /orders/:number/invoice
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	number := c.Param("number")
	buf, err := h.orders.Invoice(c.Request.Context(), identity, number)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate invoice")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", number))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	response, err := h.orders.ListAll(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve orders")
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// AdminUpdateStatus handles PUT /admin/orders/:number/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("number"), req.Status, req.Comment, identity.ID)
	if err != nil {
		respondError(c, h.log, err, "Failed to update order status")
		return
	}

	respondOK(c, http.StatusOK, "Order status updated successfully", o)
}
