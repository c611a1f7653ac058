// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/gorm"
)

// ListFilter narrows an order listing. Zero values match everything.
type ListFilter struct {
	UserID uint
	Status Status
	Offset int
	Limit  int
}

// Repository stores orders in PostgreSQL
type Repository interface {
	// Create inserts the order with its items and history in one transaction.
	Create(ctx context.Context, o *Order) error
	FindByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, o *Order, updates map[string]interface{}, history StatusHistory) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed order repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, o *Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(o).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Persistence("create order", errs.Wrap(errs.ErrConflict, "order number "+o.OrderNumber+" already used", nil))
		}
		return errs.Persistence("create order", err)
	}
	return nil
}

func (r *gormRepository) FindByNumber(ctx context.Context, number string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("order_number = ?", number).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order")
		}
		return nil, errs.Persistence("find order", err)
	}
	return &o, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&Order{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Persistence("count orders", err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errs.Persistence("list orders", err)
	}
	return orders, total, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, o *Order, updates map[string]interface{}, history StatusHistory) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(o).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return errs.Persistence("update order status", err)
	}
	return nil
}
