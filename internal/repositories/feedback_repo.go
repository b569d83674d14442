package repositories

import "stardewshop/internal/models"

// FeedbackRepository defines the interface for feedback data access.
type FeedbackRepository interface {
	// GetAll lists feedback entries, newest first.
	GetAll() ([]models.Feedback, error)
	Create(feedback *models.Feedback) error
	Delete(id uint) error
}
