package repositories

import "stardewshop/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id uint) (*models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	// Create inserts the order row and all of its line items as one atomic
	// unit: on any failure no partial order is visible.
	Create(order *models.Order) error
}
