package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"stardewshop/internal/models"
)

// MockFeedbackRepository is an in-memory implementation of FeedbackRepository.
type MockFeedbackRepository struct {
	feedbacks map[uint]models.Feedback
	nextID    uint
	mu        sync.RWMutex
}

// NewMockFeedbackRepository creates a new instance of MockFeedbackRepository.
func NewMockFeedbackRepository() *MockFeedbackRepository {
	return &MockFeedbackRepository{
		feedbacks: make(map[uint]models.Feedback),
		nextID:    1,
	}
}

// GetAll returns all feedback, newest first.
func (r *MockFeedbackRepository) GetAll() ([]models.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	feedbackList := make([]models.Feedback, 0, len(r.feedbacks))
	for _, f := range r.feedbacks {
		feedbackList = append(feedbackList, f)
	}
	sort.Slice(feedbackList, func(i, j int) bool {
		return feedbackList[i].CreatedAt.After(feedbackList[j].CreatedAt)
	})
	return feedbackList, nil
}

// Create adds a new feedback entry.
func (r *MockFeedbackRepository) Create(feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if feedback.ID == 0 {
		feedback.ID = r.nextID
	}
	if feedback.ID >= r.nextID {
		r.nextID = feedback.ID + 1
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}
	r.feedbacks[feedback.ID] = *feedback
	return nil
}

// Delete removes a feedback entry by its ID.
func (r *MockFeedbackRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.feedbacks[id]; !ok {
		return fmt.Errorf("feedback %d for deletion: %w", id, ErrNotFound)
	}
	delete(r.feedbacks, id)
	return nil
}
