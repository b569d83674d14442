package services

import (
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts retrieves products with optional category filter and sorting.
func (s *ProductService) ListProducts(category, sortBy, order string) ([]models.Product, error) {
	return s.repo.GetAll(category, sortBy, order)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product. Field validation happens at the
// request boundary.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Category == "" {
		product.Category = "General"
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id uint) error {
	return s.repo.Delete(id)
}
