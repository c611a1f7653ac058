// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// CatalogService is the product service as seen by the HTTP layer
type CatalogService interface {
	GetProducts(ctx context.Context, req *product.ProductListRequest) (*product.ProductResponse, error)
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
	GetFeatured(ctx context.Context, limit int) ([]product.Product, error)
	Search(ctx context.Context, term string) ([]product.Product, error)
	CreateProduct(ctx context.Context, req *product.ProductCreateRequest) (*product.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *product.ProductUpdateRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	AddImage(ctx context.Context, productID uint, filename string, size int64, r io.Reader) (*product.ProductImage, error)
	RemoveImage(ctx context.Context, productID, imageID uint) error
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	products CatalogService
	log      logrus.FieldLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products CatalogService, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		products: products,
		log:      log,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	response, err := h.products.GetProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve products")
		return
	}

	respondOK(c, http.StatusOK, "Products retrieved successfully", response)
}

// GetFeatured handles GET /products/featured
func (h *ProductHandler) GetFeatured(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "8"))
	if err != nil || limit <= 0 {
		limit = 8
	}

	products, err := h.products.GetFeatured(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve featured products")
		return
	}

	respondOK(c, http.StatusOK, "Featured products retrieved successfully", products)
}

// Search handles GET /products/search?q=
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.products.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err, "Failed to search products")
		return
	}

	respondOK(c, http.StatusOK, "Search completed successfully", products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve product")
		return
	}

	respondOK(c, http.StatusOK, "Product retrieved successfully", p)
}

// AdminCreateProduct handles POST /admin/products
func (h *ProductHandler) AdminCreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create product")
		return
	}

	respondOK(c, http.StatusCreated, "Product created successfully", p)
}

// AdminUpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) AdminUpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update product")
		return
	}

	respondOK(c, http.StatusOK, "Product updated successfully", p)
}

// AdminDeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) AdminDeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// AdminUploadImage handles POST /admin/products/:id/images (multipart field "image")
func (h *ProductHandler) AdminUploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "Image file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	img, err := h.products.AddImage(c.Request.Context(), id, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		respondError(c, h.log, err, "Failed to upload image")
		return
	}

	respondOK(c, http.StatusCreated, "Image uploaded successfully", img)
}

// AdminDeleteImage handles DELETE /admin/products/:id/images/:imageId
func (h *ProductHandler) AdminDeleteImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	if err := h.products.RemoveImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, h.log, err, "Failed to delete image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Image deleted successfully",
	})
}
