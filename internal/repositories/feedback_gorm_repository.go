package repositories

import (
	"fmt"

	"stardewshop/internal/models"

	"gorm.io/gorm"
)

// GORMFeedbackRepository is a GORM implementation of FeedbackRepository.
type GORMFeedbackRepository struct {
	db *gorm.DB
}

// NewGORMFeedbackRepository creates a new instance of GORMFeedbackRepository.
func NewGORMFeedbackRepository(db *gorm.DB) *GORMFeedbackRepository {
	return &GORMFeedbackRepository{
		db: db,
	}
}

// GetAll retrieves all feedback entries, newest first.
func (r *GORMFeedbackRepository) GetAll() ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	if err := r.db.Order("created_at DESC").Find(&feedbacks).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedbacks, nil
}

// Create creates a new feedback entry.
func (r *GORMFeedbackRepository) Create(feedback *models.Feedback) error {
	if err := r.db.Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// Delete removes a feedback entry by its ID.
func (r *GORMFeedbackRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Feedback{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete feedback: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feedback %d for deletion: %w", id, ErrNotFound)
	}
	return nil
}
