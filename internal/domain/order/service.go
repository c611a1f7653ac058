// internal/domain/order/service.go
package order

import (
	"bytes"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// InvoiceRenderer turns an order into a printable document
type InvoiceRenderer interface {
	GenerateInvoice(o *Order) (*bytes.Buffer, error)
}

// Service handles order business logic
type Service struct {
	repo     Repository
	invoices InvoiceRenderer
	currency string
	log      logrus.FieldLogger
	now      func() time.Time
	number   func(time.Time) string
}

// NewService creates a new order service
func NewService(repo Repository, invoices InvoiceRenderer, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		invoices: invoices,
		currency: cfg.Store.Currency,
		log:      log,
		now:      time.Now,
		number:   NewNumber,
	}
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status Status `form:"status"`
}

// ListResponse represents order response with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Create stores a new pending order. The number is generated here; a
// collision with an existing number fails the call and is not retried.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return errs.Validation("order has no items")
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if !o.Payment.Method.Valid() {
		return errs.Validation("unsupported payment method %q", o.Payment.Method)
	}

	now := s.now().UTC()
	o.OrderNumber = s.number(now)
	o.Status = StatusPending
	if o.Currency == "" {
		o.Currency = s.currency
	}
	o.StatusHistory = nil
	o.AddStatusHistory(StatusPending, "Order created", o.UserID, now)

	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"user_id":      o.UserID,
		"total":        o.TotalAmount,
		"items":        o.ItemCount(),
	}).Info("order created")
	return nil
}

// GetByNumber returns an order visible to identity. Orders of other users
// are reported as missing unless identity is an admin.
func (s *Service) GetByNumber(ctx context.Context, identity *user.Identity, number string) (*Order, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	o, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.UserID != identity.ID && !identity.IsAdmin() {
		return nil, errs.NotFound("order")
	}
	return o, nil
}

// ListForUser returns the identity's orders, newest first
func (s *Service) ListForUser(ctx context.Context, identity *user.Identity, req *ListRequest) (*ListResponse, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}
	return s.list(ctx, identity.ID, req)
}

// ListAll returns every order, optionally filtered by status
func (s *Service) ListAll(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	return s.list(ctx, 0, req)
}

func (s *Service) list(ctx context.Context, userID uint, req *ListRequest) (*ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, errs.Validation("unknown status %q", req.Status)
	}
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	orders, total, err := s.repo.List(ctx, ListFilter{
		UserID: userID,
		Status: req.Status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// UpdateStatus moves an order to any valid status and records who did it
func (s *Service) UpdateStatus(ctx context.Context, number string, status Status, comment string, updatedBy uint) (*Order, error) {
	if !status.Valid() {
		return nil, errs.Validation("unknown status %q", status)
	}

	o, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	previous := o.Status
	now := s.now().UTC()
	updates := map[string]interface{}{
		"status": status,
	}

	// Set timestamps based on status
	switch status {
	case StatusProcessing:
		updates["processed_at"] = now
	case StatusShipped:
		updates["shipped_at"] = now
	case StatusDelivered:
		updates["delivered_at"] = now
	}

	history := StatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: updatedBy,
		CreatedAt: now,
	}
	if err := s.repo.UpdateStatus(ctx, o, updates, history); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"from":         previous,
		"to":           status,
		"updated_by":   updatedBy,
	}).Info("order status changed")

	o.Status = status
	o.StatusHistory = append([]StatusHistory{history}, o.StatusHistory...)
	return o, nil
}

// Invoice renders the PDF invoice of an order visible to identity
func (s *Service) Invoice(ctx context.Context, identity *user.Identity, number string) (*bytes.Buffer, error) {
	o, err := s.GetByNumber(ctx, identity, number)
	if err != nil {
		return nil, err
	}
	return s.invoices.GenerateInvoice(o)
}
