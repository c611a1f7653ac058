// internal/domain/cart/repository.go
package cart

import (
	"context"
)

// Repository persists one Document per identity
type Repository interface {
	// Load returns errs.ErrNotFound when the identity has no document yet.
	Load(ctx context.Context, userID uint) (*Document, error)
	// Save writes doc if the stored version still equals doc.Version and
	// bumps the version. A mismatch returns errs.ErrConflict.
	Save(ctx context.Context, doc *Document) error
	// The wishlist writes bump the version as well.
	AddToWishlist(ctx context.Context, userID uint, productID uint) error
	RemoveFromWishlist(ctx context.Context, userID uint, productID uint) error
}
