// internal/domain/cart/hydrator.go
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Catalog resolves product ids against the live catalog
type Catalog interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// Hydrator joins cart entries with live product data.
//
// Entries whose product no longer exists are dropped from the hydrated
// items, reported in View.Dropped and logged at warn level. The persisted
// document keeps them.
type Hydrator struct {
	catalog Catalog
	breaker *gobreaker.CircuitBreaker[*product.Product]
	log     logrus.FieldLogger
}

// NewHydrator wraps catalog lookups in a circuit breaker that opens after
// five consecutive backend failures
func NewHydrator(catalog Catalog, log logrus.FieldLogger) *Hydrator {
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errs.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &Hydrator{
		catalog: catalog,
		breaker: gobreaker.NewCircuitBreaker[*product.Product](settings),
		log:     log,
	}
}

// Lookup fetches one product through the breaker
func (h *Hydrator) Lookup(ctx context.Context, id uint) (*product.Product, error) {
	p, err := h.breaker.Execute(func() (*product.Product, error) {
		return h.catalog.GetProduct(ctx, id)
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		return nil, errs.Persistence("catalog lookup", err)
	}
	return p, nil
}

// Hydrate resolves every entry independently and keeps entry order
func (h *Hydrator) Hydrate(ctx context.Context, entries []Entry) ([]HydratedItem, []Entry, error) {
	items := make([]HydratedItem, 0, len(entries))
	var dropped []Entry

	for _, entry := range entries {
		p, err := h.Lookup(ctx, entry.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				h.log.WithFields(logrus.Fields{
					"product_id": entry.ProductID,
					"variant":    entry.Variant,
				}).Warn("cart entry references a missing product; leaving it out")
				dropped = append(dropped, entry)
				continue
			}
			return nil, nil, err
		}

		snapshot := Snapshot(p)
		items = append(items, HydratedItem{
			Entry:     entry,
			Product:   snapshot,
			LineTotal: snapshot.Price * int64(entry.Quantity),
		})
	}

	return items, dropped, nil
}

// Snapshot copies the display fields of p
func Snapshot(p *product.Product) ProductSnapshot {
	return ProductSnapshot{
		ID:      p.ID,
		Name:    p.Name,
		Price:   p.Price,
		Images:  p.ImageURLs(),
		Stock:   p.Stock,
		InStock: p.IsInStock(),
	}
}
