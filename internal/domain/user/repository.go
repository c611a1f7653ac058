// internal/domain/user/repository.go
package user

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/gorm"
)

// Repository persists user accounts
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	UpdateDisplayName(ctx context.Context, id uint, displayName string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.ErrDuplicateEmail
		}
		return errs.Persistence("create user", err)
	}
	return nil
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user")
		}
		return nil, errs.Persistence("find user by email", err)
	}
	return &u, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user")
		}
		return nil, errs.Persistence("find user", err)
	}
	return &u, nil
}

func (r *gormRepository) UpdateDisplayName(ctx context.Context, id uint, displayName string) error {
	return r.update(ctx, id, "update display name", map[string]interface{}{"display_name": displayName})
}

func (r *gormRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, "update password", map[string]interface{}{"password": hash})
}

func (r *gormRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, "update last login", map[string]interface{}{"last_login_at": at})
}

func (r *gormRepository) update(ctx context.Context, id uint, op string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errs.Persistence(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("user")
	}
	return nil
}
