// internal/domain/checkout/pricing.go
package checkout

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
)

// Pricing is the cost breakdown of an order, in cents
type Pricing struct {
	Subtotal int64  `json:"subtotal"`
	Tax      int64  `json:"tax"`
	Shipping int64  `json:"shipping"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// Calculator applies the store's tax and shipping rules
type Calculator struct {
	taxRate     decimal.Decimal
	shippingFee int64
	threshold   int64
	currency    string
}

func NewCalculator(cfg *config.Config) Calculator {
	return Calculator{
		taxRate:     decimal.NewFromFloat(cfg.Store.TaxRate),
		shippingFee: cfg.Store.ShippingFee,
		threshold:   cfg.Store.FreeShippingThreshold,
		currency:    cfg.Store.Currency,
	}
}

// Price computes tax rounded half away from zero to the cent and a flat
// shipping fee that is waived from the threshold upwards
func (c Calculator) Price(subtotal int64) Pricing {
	tax := decimal.NewFromInt(subtotal).Mul(c.taxRate).Round(0).IntPart()

	shipping := c.shippingFee
	if subtotal >= c.threshold {
		shipping = 0
	}

	return Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
		Currency: c.currency,
	}
}

// UntilFreeShipping returns how much more must be spent to ship for free
func (c Calculator) UntilFreeShipping(subtotal int64) int64 {
	if subtotal >= c.threshold {
		return 0
	}
	return c.threshold - subtotal
}
