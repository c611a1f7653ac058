// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"strings"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/gorm"
)

// Repository persists catalog data
type Repository interface {
	List(ctx context.Context, req *ProductListRequest) ([]Product, int64, error)
	FindByID(ctx context.Context, id uint) (*Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Search(ctx context.Context, term string, limit int) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	AddImage(ctx context.Context, img *ProductImage) error
	FindImage(ctx context.Context, productID, imageID uint) (*ProductImage, error)
	DeleteImage(ctx context.Context, imageID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, id ASC")
	})
}

func (r *gormRepository) List(ctx context.Context, req *ProductListRequest) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Subcategory != "" {
		query = query.Where("subcategory = ?", req.Subcategory)
	}
	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}
	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}
	if req.Featured != nil {
		query = query.Where("is_featured = ?", *req.Featured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Persistence("count products", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := withImages(query).
		Order(orderClause(req.SortBy)).
		Offset(offset).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, errs.Persistence("list products", err)
	}

	return products, total, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := withImages(r.db.WithContext(ctx)).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product")
		}
		return nil, errs.Persistence("find product", err)
	}
	return &p, nil
}

func (r *gormRepository) Featured(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	err := withImages(r.db.WithContext(ctx)).
		Where("is_featured = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, errs.Persistence("list featured products", err)
	}
	return products, nil
}

func (r *gormRepository) Search(ctx context.Context, term string, limit int) ([]Product, error) {
	var products []Product
	pattern := "%" + strings.ToLower(term) + "%"
	err := withImages(r.db.WithContext(ctx)).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, errs.Persistence("search products", err)
	}
	return products, nil
}

func (r *gormRepository) Create(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return errs.Persistence("create product", err)
	}
	return nil
}

func (r *gormRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errs.Persistence("update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("product")
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return errs.Persistence("delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("product")
	}
	return nil
}

func (r *gormRepository) AddImage(ctx context.Context, img *ProductImage) error {
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		return errs.Persistence("add product image", err)
	}
	return nil
}

func (r *gormRepository) FindImage(ctx context.Context, productID, imageID uint) (*ProductImage, error) {
	var img ProductImage
	err := r.db.WithContext(ctx).Where("id = ? AND product_id = ?", imageID, productID).First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product image")
		}
		return nil, errs.Persistence("find product image", err)
	}
	return &img, nil
}

func (r *gormRepository) DeleteImage(ctx context.Context, imageID uint) error {
	if err := r.db.WithContext(ctx).Delete(&ProductImage{}, imageID).Error; err != nil {
		return errs.Persistence("delete product image", err)
	}
	return nil
}

// orderClause maps the storefront sort options to ORDER BY clauses
func orderClause(sortBy string) string {
	switch sortBy {
	case SortPriceLow:
		return "price ASC, id ASC"
	case SortPriceHigh:
		return "price DESC, id ASC"
	case SortName:
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}
