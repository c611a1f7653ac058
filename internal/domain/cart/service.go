// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"golang.org/x/sync/singleflight"
)

// Service is the cart session store. It keeps one Document per identity and
// follows identity transitions published by the session manager.
type Service struct {
	repo        Repository
	cache       Cache
	hydrator    *Hydrator
	notifier    notify.Notifier
	maxQuantity int
	log         logrus.FieldLogger
	now         func() time.Time

	sfg         singleflight.Group
	unsubscribe func()
}

// NewService creates the cart store and subscribes it to sessions.
// Close releases the subscription.
func NewService(repo Repository, cache Cache, hydrator *Hydrator, sessions session.Subscriber, notifier notify.Notifier, cfg *config.Config, log logrus.FieldLogger) *Service {
	s := &Service{
		repo:        repo,
		cache:       cache,
		hydrator:    hydrator,
		notifier:    notifier,
		maxQuantity: cfg.Store.MaxQuantityPerItem,
		log:         log,
		now:         time.Now,
	}
	s.unsubscribe = sessions.Subscribe(s.OnIdentityChange)
	return s
}

// Close stops following identity transitions
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Get returns the hydrated cart of identity
func (s *Service) Get(ctx context.Context, identity *user.Identity) (*View, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	doc, err := s.load(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, doc)
}

// ItemCount returns the sum of entry quantities
func (s *Service) ItemCount(ctx context.Context, identity *user.Identity) (int, error) {
	if identity == nil {
		return 0, errs.ErrAuthRequired
	}
	doc, err := s.load(ctx, identity.ID)
	if err != nil {
		return 0, err
	}
	return ItemCount(doc.Entries), nil
}

// Total returns the sum of price times quantity over hydrated items
func (s *Service) Total(ctx context.Context, identity *user.Identity) (int64, error) {
	v, err := s.Get(ctx, identity)
	if err != nil {
		return 0, err
	}
	return v.Total, nil
}

// Add puts quantity units of a product into the cart, summing into an
// existing entry with the same variant
func (s *Service) Add(ctx context.Context, identity *user.Identity, productID uint, quantity int, variant Variant) (*View, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	view, err := s.add(ctx, identity, productID, quantity, variant)
	channel := notify.For(s.notifier, identity.ID)
	if err != nil {
		channel.Error(ctx, failureMessage(err, "Failed to add item to cart"), "Error")
		return nil, err
	}
	channel.Success(ctx, "Product added to cart!", "Success")
	return view, nil
}

func (s *Service) add(ctx context.Context, identity *user.Identity, productID uint, quantity int, variant Variant) (*View, error) {
	if quantity < 1 {
		return nil, errs.Validation("quantity must be at least 1")
	}
	if quantity > s.maxQuantity {
		return nil, errs.Validation("quantity cannot exceed %d", s.maxQuantity)
	}
	if _, err := s.hydrator.Lookup(ctx, productID); err != nil {
		return nil, err
	}

	doc, err := s.mutate(ctx, identity.ID, func(doc *Document, now time.Time) (bool, error) {
		if i := doc.indexOf(productID, variant); i >= 0 && doc.Entries[i].Quantity+quantity > s.maxQuantity {
			return false, errs.Validation("quantity cannot exceed %d", s.maxQuantity)
		}
		doc.add(productID, quantity, variant, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    identity.ID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("cart item added")

	return s.view(ctx, doc)
}

// Remove deletes the matching entry. A missing entry is not an error.
func (s *Service) Remove(ctx context.Context, identity *user.Identity, productID uint, variant Variant) (*View, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	doc, err := s.mutate(ctx, identity.ID, func(doc *Document, _ time.Time) (bool, error) {
		return doc.remove(productID, variant), nil
	})
	if err != nil {
		notify.For(s.notifier, identity.ID).Error(ctx, failureMessage(err, "Failed to remove item from cart"), "Error")
		return nil, err
	}
	return s.view(ctx, doc)
}

// UpdateQuantity replaces the quantity of the matching entry. A quantity of
// zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, identity *user.Identity, productID uint, quantity int, variant Variant) (*View, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}
	channel := notify.For(s.notifier, identity.ID)
	if quantity > s.maxQuantity {
		err := errs.Validation("quantity cannot exceed %d", s.maxQuantity)
		channel.Error(ctx, failureMessage(err, ""), "Error")
		return nil, err
	}

	doc, err := s.mutate(ctx, identity.ID, func(doc *Document, now time.Time) (bool, error) {
		return doc.setQuantity(productID, quantity, variant, now), nil
	})
	if err != nil {
		channel.Error(ctx, failureMessage(err, "Failed to update cart"), "Error")
		return nil, err
	}
	return s.view(ctx, doc)
}

// Clear empties the entry list. The wishlist is kept.
func (s *Service) Clear(ctx context.Context, identity *user.Identity) error {
	return s.clear(ctx, identity, nil)
}

// ClearIfUnchanged empties the entry list only while the stored cart is
// still at version, the View.Version a caller read. A newer cart returns
// errs.ErrConflict and keeps its entries.
func (s *Service) ClearIfUnchanged(ctx context.Context, identity *user.Identity, version int64) error {
	return s.clear(ctx, identity, &version)
}

func (s *Service) clear(ctx context.Context, identity *user.Identity, version *int64) error {
	if identity == nil {
		return errs.ErrAuthRequired
	}

	_, err := s.mutate(ctx, identity.ID, func(doc *Document, _ time.Time) (bool, error) {
		if version != nil && doc.Version != *version {
			return false, errs.Wrap(errs.ErrPersistence, "clear cart", errs.ErrConflict)
		}
		if len(doc.Entries) == 0 {
			return false, nil
		}
		doc.Entries = []Entry{}
		return true, nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("user_id", identity.ID).Info("cart cleared")
	return nil
}

// Wishlist returns the saved products that still exist
func (s *Service) Wishlist(ctx context.Context, identity *user.Identity) ([]ProductSnapshot, error) {
	if identity == nil {
		return nil, errs.ErrAuthRequired
	}

	doc, err := s.load(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	products := make([]ProductSnapshot, 0, len(doc.Wishlist))
	for _, id := range doc.Wishlist {
		p, err := s.hydrator.Lookup(ctx, id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				s.log.WithField("product_id", id).Warn("wishlist references a missing product; leaving it out")
				continue
			}
			return nil, err
		}
		products = append(products, Snapshot(p))
	}
	return products, nil
}

// AddToWishlist saves a product. Adding a saved product again changes nothing.
func (s *Service) AddToWishlist(ctx context.Context, identity *user.Identity, productID uint) error {
	if identity == nil {
		return errs.ErrAuthRequired
	}
	if _, err := s.hydrator.Lookup(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.AddToWishlist(ctx, identity.ID, productID); err != nil {
		return err
	}
	s.refresh(ctx, identity.ID)
	return nil
}

// RemoveFromWishlist forgets a saved product
func (s *Service) RemoveFromWishlist(ctx context.Context, identity *user.Identity, productID uint) error {
	if identity == nil {
		return errs.ErrAuthRequired
	}
	if err := s.repo.RemoveFromWishlist(ctx, identity.ID, productID); err != nil {
		return err
	}
	s.refresh(ctx, identity.ID)
	return nil
}

// OnIdentityChange drops the cached cart of the identity that signed out and
// reloads the cart of the identity that signed in. Persisted documents are
// never touched.
func (s *Service) OnIdentityChange(ctx context.Context, t session.Transition) {
	if t.Previous != nil {
		s.invalidate(t.Previous.ID)
	}
	if t.Current == nil {
		return
	}

	s.invalidate(t.Current.ID)
	if _, err := s.load(ctx, t.Current.ID); err != nil {
		s.log.WithError(err).WithField("user_id", t.Current.ID).Warn("cart reload after sign-in failed")
	}
}

// load reads through the cache; concurrent misses for one identity share a
// single backend read
func (s *Service) load(ctx context.Context, userID uint) (*Document, error) {
	v, err, _ := s.sfg.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		doc, err := s.cache.Get(ctx, userID)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.WithError(err).WithField("user_id", userID).Warn("cart cache read failed")
		}

		doc, err = s.fetch(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, doc); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("cart cache write failed")
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document).Clone(), nil
}

// fetch reads the authoritative document, returning an empty one for an
// identity that never had a cart
func (s *Service) fetch(ctx context.Context, userID uint) (*Document, error) {
	doc, err := s.repo.Load(ctx, userID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return &Document{
		UserID:   userID,
		Entries:  []Entry{},
		Wishlist: []uint{},
	}, nil
}

// mutate applies fn to a copy of the stored document and writes it back with
// a version check. The cache is updated only after the write succeeds, so
// readers keep seeing the old state until then.
func (s *Service) mutate(ctx context.Context, userID uint, fn func(doc *Document, now time.Time) (bool, error)) (*Document, error) {
	current, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	changed, err := fn(next, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	if err := s.repo.Save(ctx, next); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			s.log.WithField("user_id", userID).Warn("cart changed concurrently; write rejected")
		}
		return nil, err
	}

	s.store(userID, next)
	return next, nil
}

// store writes a confirmed document through to the cache. A reader that
// fetched an older version cannot overwrite it afterwards.
func (s *Service) store(userID uint, doc *Document) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, userID, doc); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart cache write failed; invalidating")
		s.invalidate(userID)
	}
}

// refresh re-reads the stored document after a write that does not return it
func (s *Service) refresh(ctx context.Context, userID uint) {
	doc, err := s.fetch(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart reload after write failed")
		s.invalidate(userID)
		return
	}
	s.store(userID, doc)
}

func (s *Service) invalidate(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart cache invalidation failed")
	}
}

func (s *Service) view(ctx context.Context, doc *Document) (*View, error) {
	items, dropped, err := s.hydrator.Hydrate(ctx, doc.Entries)
	if err != nil {
		return nil, err
	}

	entries := doc.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return &View{
		Entries:   entries,
		Items:     items,
		Dropped:   dropped,
		ItemCount: ItemCount(entries),
		Total:     Total(items),
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// failureMessage turns a failed cart operation into text for the user
func failureMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": ")
	case errors.Is(err, errs.ErrNotFound):
		return "Product not found"
	case errors.Is(err, errs.ErrConflict):
		return "Your cart was changed elsewhere. Please try again."
	default:
		return fallback
	}
}
