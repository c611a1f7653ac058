// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// Carts is the part of the cart store checkout needs
type Carts interface {
	Get(ctx context.Context, identity *user.Identity) (*cart.View, error)
	ClearIfUnchanged(ctx context.Context, identity *user.Identity, version int64) error
}

// Orders persists placed orders
type Orders interface {
	Create(ctx context.Context, o *order.Order) error
}

// EventPublisher announces placed orders
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
}

// Service handles checkout business logic
type Service struct {
	carts      Carts
	orders     Orders
	events     EventPublisher
	notifier   notify.Notifier
	calculator Calculator
	log        logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(carts Carts, orders Orders, events EventPublisher, notifier notify.Notifier, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		carts:      carts,
		orders:     orders,
		events:     events,
		notifier:   notifier,
		calculator: NewCalculator(cfg),
		log:        log,
	}
}

// PaymentOption describes an accepted payment method
type PaymentOption struct {
	ID          order.PaymentMethod `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
}

// Quote is the checkout summary shown before an order is placed
type Quote struct {
	Cart              *cart.View      `json:"cart"`
	Pricing           Pricing         `json:"pricing"`
	UntilFreeShipping int64           `json:"until_free_shipping"`
	PaymentMethods    []PaymentOption `json:"payment_methods"`
}

// PlaceOrderRequest represents checkout form data. Card details are only
// checked for shape; nothing but the last four digits is kept.
type PlaceOrderRequest struct {
	Email           string              `json:"email"`
	ShippingAddress order.Address       `json:"shipping_address" binding:"required"`
	PaymentMethod   order.PaymentMethod `json:"payment_method" binding:"required"`
	CardNumber      string              `json:"card_number"`
	CardName        string              `json:"card_name"`
	ExpiryDate      string              `json:"expiry_date"`
	CVV             string              `json:"cvv"`
	Notes           string              `json:"notes"`
}

// Result is returned after an order was stored. CartCleared is false when
// the cart could not be emptied; clients then retry clearing the cart, never
// the order.
type Result struct {
	Order       *order.Order `json:"order"`
	CartCleared bool         `json:"cart_cleared"`
}

// Quote prices the current cart without creating anything
func (s *Service) Quote(ctx context.Context, identity *user.Identity) (*Quote, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	view, err := s.carts.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Cart:              view,
		Pricing:           s.calculator.Price(view.Total),
		UntilFreeShipping: s.calculator.UntilFreeShipping(view.Total),
		PaymentMethods:    paymentOptions(),
	}, nil
}

// PlaceOrder snapshots the hydrated cart into a pending order and then
// empties the cart. A cart that changed after the snapshot is left as is.
func (s *Service) PlaceOrder(ctx context.Context, identity *user.Identity, req *PlaceOrderRequest) (*Result, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	channel := notify.For(s.notifier, identity.ID)
	entry := s.log.WithField("user_id", identity.ID)

	view, err := s.carts.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, errs.Validation("cart is empty")
	}
	for _, item := range view.Items {
		if item.Quantity > item.Product.Stock {
			return nil, errs.Validation("only %d of %q left in stock", item.Product.Stock, item.Product.Name)
		}
	}
	if len(view.Dropped) > 0 {
		channel.Warning(ctx, fmt.Sprintf("%d item(s) are no longer available and were left out", len(view.Dropped)), "Checkout")
	}

	o := s.buildOrder(identity, req, view)
	if err := s.orders.Create(ctx, o); err != nil {
		entry.WithError(err).Error("order creation failed")
		channel.Error(ctx, "Failed to place order. Please try again.", "Order Error")
		return nil, err
	}

	entry = entry.WithField("order_number", o.OrderNumber)
	if err := s.events.PublishOrderCreated(ctx, o); err != nil {
		entry.WithError(err).Warn("order event not published")
	}

	result := &Result{Order: o, CartCleared: true}
	if err := s.carts.ClearIfUnchanged(ctx, identity, view.Version); err != nil {
		result.CartCleared = false
		entry.WithError(err).Warn("cart not cleared after order")
		if errors.Is(err, errs.ErrConflict) {
			channel.Warning(ctx, "Your order was placed. Items added to the cart while it was being placed were kept.", "Cart")
		} else {
			channel.Warning(ctx, "Your order was placed but the cart could not be emptied. Please clear it manually.", "Cart")
		}
	}

	channel.Success(ctx, fmt.Sprintf("Order %s placed", o.OrderNumber), "Order placed")
	return result, nil
}

func (s *Service) buildOrder(identity *user.Identity, req *PlaceOrderRequest, view *cart.View) *order.Order {
	pricing := s.calculator.Price(view.Total)

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = identity.Email
	}

	o := &order.Order{
		UserID:          identity.ID,
		Email:           email,
		SubtotalAmount:  pricing.Subtotal,
		TaxAmount:       pricing.Tax,
		ShippingAmount:  pricing.Shipping,
		TotalAmount:     pricing.Total,
		Currency:        pricing.Currency,
		ShippingAddress: req.ShippingAddress,
		Payment:         order.Payment{Method: req.PaymentMethod},
		Notes:           strings.TrimSpace(req.Notes),
	}
	if req.PaymentMethod.IsCard() {
		o.Payment.Last4 = last4(req.CardNumber)
	}

	for _, item := range view.Items {
		var image string
		if len(item.Product.Images) > 0 {
			image = item.Product.Images[0]
		}
		o.Items = append(o.Items, order.OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Product.Name,
			Image:      image,
			Variant:    item.Variant,
			Quantity:   item.Quantity,
			Price:      item.Product.Price,
			TotalPrice: item.LineTotal,
		})
	}
	return o
}

func (r *PlaceOrderRequest) validate() error {
	if r.Email != "" {
		if err := user.ValidateEmail(r.Email); err != nil {
			return err
		}
	}
	if err := r.ShippingAddress.Validate(); err != nil {
		return err
	}
	if !r.PaymentMethod.Valid() {
		return errs.Validation("unsupported payment method %q", r.PaymentMethod)
	}
	if !r.PaymentMethod.IsCard() {
		return nil
	}

	digits := strings.ReplaceAll(r.CardNumber, " ", "")
	if len(digits) < 16 || len(digits) > 19 || strings.Trim(digits, "0123456789") != "" {
		return errs.Validation("invalid card number")
	}
	if strings.TrimSpace(r.CardName) == "" {
		return errs.Validation("cardholder name is required")
	}
	if !expiryPattern.MatchString(r.ExpiryDate) {
		return errs.Validation("invalid expiry date (MM/YY)")
	}
	if len(r.CVV) < 3 || len(r.CVV) > 4 {
		return errs.Validation("invalid CVV")
	}
	return nil
}

func last4(cardNumber string) string {
	digits := strings.ReplaceAll(cardNumber, " ", "")
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func paymentOptions() []PaymentOption {
	return []PaymentOption{
		{ID: order.PaymentCreditCard, Name: "Credit Card", Description: "Visa, Mastercard, American Express"},
		{ID: order.PaymentDebitCard, Name: "Debit Card", Description: "Pay directly from your bank account"},
		{ID: order.PaymentPayPal, Name: "PayPal", Description: "Pay with your PayPal balance"},
		{ID: order.PaymentCOD, Name: "Cash on Delivery", Description: "Pay cash when your order is delivered"},
	}
}
