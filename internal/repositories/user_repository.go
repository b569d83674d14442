package repositories

import "stardewshop/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	// GetByUsernameAndEmail resolves a user by the exact pair. This backs the
	// relaxed guest-checkout identity check and deliberately ignores the
	// password column.
	GetByUsernameAndEmail(username, email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
}
