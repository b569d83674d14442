package services

import (
	"errors"
	"fmt"

	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
)

// ErrInvalidRating is returned when a rating falls outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// FeedbackService handles visitor feedback.
type FeedbackService struct {
	repo repositories.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(repo repositories.FeedbackRepository) *FeedbackService {
	return &FeedbackService{
		repo: repo,
	}
}

// ListFeedback retrieves all feedback entries, newest first.
func (s *FeedbackService) ListFeedback() ([]models.Feedback, error) {
	return s.repo.GetAll()
}

// SubmitFeedback persists a feedback entry. Rating bounds are enforced here
// as well as at the request boundary.
func (s *FeedbackService) SubmitFeedback(feedback *models.Feedback) error {
	if feedback.Rating < 1 || feedback.Rating > 5 {
		return ErrInvalidRating
	}
	if err := s.repo.Create(feedback); err != nil {
		return fmt.Errorf("failed to submit feedback: %w", err)
	}
	return nil
}

// DeleteFeedback removes a feedback entry. Admin-only at the route layer.
func (s *FeedbackService) DeleteFeedback(id uint) error {
	return s.repo.Delete(id)
}
