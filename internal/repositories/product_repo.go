package repositories

import (
	"stardewshop/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetAll lists products, optionally filtered by category and sorted by an
	// allowlisted column (id, name, price) in asc or desc order. Unknown
	// sort values fall back to id ascending.
	GetAll(category, sortBy, order string) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	// GetByIDs batch-loads the products whose ids are present; missing ids
	// are simply absent from the result.
	GetByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}
