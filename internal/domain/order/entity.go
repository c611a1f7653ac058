// internal/domain/order/entity.go
package order

import (
	"regexp"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Status represents the order status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Statuses lists every valid status in lifecycle order
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPayPal     PaymentMethod = "paypal"
	PaymentCOD        PaymentMethod = "cod"
)

// IsCard reports whether the method takes a card number
func (m PaymentMethod) IsCard() bool {
	return m == PaymentCreditCard || m == PaymentDebitCard
}

// Valid reports whether m is a supported method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentCOD:
		return true
	}
	return false
}

// Order represents a placed order. Items are snapshots and never follow
// later catalog changes.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:32" json:"order_number"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Email       string `gorm:"not null;size:255" json:"email"`
	Status      Status `gorm:"not null;default:'pending';index" json:"status"`

	// Financial Information
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"` // In cents
	TaxAmount      int64  `gorm:"default:0" json:"tax_amount"`
	ShippingAmount int64  `gorm:"default:0" json:"shipping_amount"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;default:'USD'" json:"currency"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Payment         Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Notes           string  `gorm:"type:text" json:"notes"`

	// Timestamps
	ProcessedAt *time.Time `json:"processed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a price/name/quantity snapshot of one cart line
type OrderItem struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	OrderID    uint              `gorm:"not null;index" json:"order_id"`
	ProductID  uint              `gorm:"not null;index" json:"product_id"`
	Name       string            `gorm:"not null;size:255" json:"name"`
	Image      string            `gorm:"size:500" json:"image"`
	Variant    map[string]string `gorm:"serializer:json;type:text" json:"variant,omitempty"`
	Quantity   int               `gorm:"not null" json:"quantity"`
	Price      int64             `gorm:"not null" json:"price"`       // Price per unit in cents
	TotalPrice int64             `gorm:"not null" json:"total_price"` // Quantity * Price
	CreatedAt  time.Time         `json:"created_at"`
}

// StatusHistory tracks order status changes
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"not null" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedBy uint      `gorm:"index" json:"created_by"` // User ID who made the change
	CreatedAt time.Time `json:"created_at"`
}

// Address represents the shipping address (embedded in Order)
type Address struct {
	FullName string `gorm:"size:200" json:"full_name"`
	Street   string `gorm:"size:255" json:"address"`
	City     string `gorm:"size:100" json:"city"`
	State    string `gorm:"size:100" json:"state"`
	ZipCode  string `gorm:"size:20" json:"zip_code"`
	Country  string `gorm:"size:100" json:"country"`
	Phone    string `gorm:"size:30" json:"phone"`
}

// Payment keeps the method and a masked reference only
type Payment struct {
	Method PaymentMethod `gorm:"size:20" json:"method"`
	Last4  string        `gorm:"size:4" json:"last4,omitempty"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderItem) TableName() string     { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

var (
	phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Validate checks that the address is deliverable
func (a *Address) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"full name", a.FullName},
		{"address", a.Street},
		{"city", a.City},
		{"state", a.State},
	} {
		if strings.TrimSpace(field.value) == "" {
			return errs.Validation("%s is required", field.name)
		}
	}
	if !zipPattern.MatchString(a.ZipCode) {
		return errs.Validation("invalid ZIP code")
	}
	if !phonePattern.MatchString(a.Phone) {
		return errs.Validation("invalid phone number")
	}
	return nil
}

// Business methods for Order

// GetFormattedTotal returns total amount as float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// IsTerminal reports whether the order reached a final status. Admins may
// still change it.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled || o.Status == StatusRefunded
}

// ItemCount sums item quantities
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// AddStatusHistory adds a new status change to history
func (o *Order) AddStatusHistory(status Status, comment string, createdBy uint, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: at,
	})
}
