// internal/domain/product/service.go
package product

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/storage"
)

// Sort options understood by GetProducts
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
	maxSearchResult = 50
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// ImageStore saves and removes product image files
type ImageStore interface {
	Save(ctx context.Context, dir, originalName string, size int64, r io.Reader) (*storage.File, error)
	Delete(path string) error
}

// Service handles catalog business logic
type Service struct {
	repo      Repository
	images    ImageStore
	maxImages int
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new product service
func NewService(repo Repository, images ImageStore, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		maxImages: cfg.Store.MaxProductImages,
		log:       log,
		now:       time.Now,
	}
}

// ProductListRequest represents catalog filters
type ProductListRequest struct {
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=12"`
	Category    string `form:"category"`
	Subcategory string `form:"subcategory"`
	MinPrice    int64  `form:"min_price"`
	MaxPrice    int64  `form:"max_price"`
	SortBy      string `form:"sort_by,default=newest"`
	Featured    *bool  `form:"featured"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory"`
	Stock       int    `json:"stock"`
	IsFeatured  bool   `json:"is_featured"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Stock       *int    `json:"stock"`
	IsFeatured  *bool   `json:"is_featured"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
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

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = defaultPageSize
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	if req.MinPrice > 0 && req.MaxPrice > 0 && req.MinPrice > req.MaxPrice {
		return nil, errs.Validation("min_price cannot exceed max_price")
	}

	products, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ProductResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// GetFeatured returns up to limit featured products
func (s *Service) GetFeatured(ctx context.Context, limit int) ([]Product, error) {
	if limit < 1 || limit > maxPageSize {
		limit = 6
	}
	return s.repo.Featured(ctx, limit)
}

// Search matches products by name or description
func (s *Service) Search(ctx context.Context, term string) ([]Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Product{}, nil
	}
	return s.repo.Search(ctx, term, maxSearchResult)
}

// CreateProduct adds a product to the catalog
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if err := validateFields(req.Name, req.Price, req.Stock); err != nil {
		return nil, err
	}

	p := &Product{
		Name:        strings.TrimSpace(req.Name),
		Slug:        s.generateSlug(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithField("product_id", p.ID).Info("product created")
	return p, nil
}

// UpdateProduct applies a partial update
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	name, price, stock := current.Name, current.Price, current.Stock

	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		updates["name"] = name
		updates["slug"] = s.generateSlug(name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		price = *req.Price
		updates["price"] = price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Subcategory != nil {
		updates["subcategory"] = *req.Subcategory
	}
	if req.Stock != nil {
		stock = *req.Stock
		updates["stock"] = stock
		updates["in_stock"] = stock > 0
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}

	if err := validateFields(name, price, stock); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, id)
}

// DeleteProduct soft deletes a product. Carts still referencing it are
// reconciled at hydration time.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// AddImage stores an uploaded image and attaches it to the product
func (s *Service) AddImage(ctx context.Context, productID uint, filename string, size int64, r io.Reader) (*ProductImage, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(p.Images) >= s.maxImages {
		return nil, errs.Validation("a product can have at most %d images", s.maxImages)
	}

	file, err := s.images.Save(ctx, fmt.Sprintf("products/%d", productID), filename, size, r)
	if err != nil {
		return nil, err
	}

	img := &ProductImage{
		ProductID: productID,
		URL:       file.URL,
		Path:      file.Path,
		AltText:   p.Name,
		SortOrder: len(p.Images),
	}
	if err := s.repo.AddImage(ctx, img); err != nil {
		if delErr := s.images.Delete(file.Path); delErr != nil {
			s.log.WithError(delErr).WithField("path", file.Path).Warn("failed to clean up orphaned image")
		}
		return nil, err
	}

	return img, nil
}

// RemoveImage detaches an image and deletes its file
func (s *Service) RemoveImage(ctx context.Context, productID, imageID uint) error {
	img, err := s.repo.FindImage(ctx, productID, imageID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteImage(ctx, img.ID); err != nil {
		return err
	}

	if err := s.images.Delete(img.Path); err != nil {
		s.log.WithError(err).WithField("path", img.Path).Warn("image record removed but file deletion failed")
	}
	return nil
}

func validateFields(name string, price int64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation("product name is required")
	}
	if price <= 0 {
		return errs.Validation("price must be greater than zero")
	}
	if stock < 0 {
		return errs.Validation("stock cannot be negative")
	}
	return nil
}

// generateSlug generates URL-friendly slug from name
func (s *Service) generateSlug(name string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	return fmt.Sprintf("%s-%d", slug, s.now().UnixNano())
}
