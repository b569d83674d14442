package handlers

import (
	"errors"
	"log"

	"stardewshop/internal/middleware"
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
	"stardewshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// FeedbackHandler handles visitor feedback on both surfaces.
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	authService     *services.AuthService
	store           *session.Store
	validate        *validator.Validate
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *services.FeedbackService, authService *services.AuthService, store *session.Store) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		authService:     authService,
		store:           store,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the session-surface feedback routes. Submitting
// requires a logged-in user; the entry is stored under their username.
func (h *FeedbackHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/feedback", h.HandleListFeedback)
	router.Post("/feedback", middleware.LoginRequired(h.store), h.HandleSubmitSessionFeedback)
}

// RegisterAPIRoutes registers the JSON API feedback routes. Deletion goes
// through the supplied admin gate.
func (h *FeedbackHandler) RegisterAPIRoutes(router fiber.Router, adminGate ...fiber.Handler) {
	feedbackRoutes := router.Group("/feedback")
	feedbackRoutes.Get("/", h.HandleListFeedback)
	feedbackRoutes.Post("/", h.HandleSubmitAPIFeedback)
	feedbackRoutes.Delete("/:id", append(adminGate, h.HandleDeleteFeedback)...)
}

// HandleListFeedback lists feedback entries, newest first.
func (h *FeedbackHandler) HandleListFeedback(c *fiber.Ctx) error {
	feedbacks, err := h.feedbackService.ListFeedback()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve feedback",
			"error":   err.Error(),
		})
	}
	return c.JSON(feedbacks)
}

// SessionFeedbackRequest is the body of a logged-in feedback submission.
type SessionFeedbackRequest struct {
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// HandleSubmitSessionFeedback stores feedback under the session user's
// username.
func (h *FeedbackHandler) HandleSubmitSessionFeedback(c *fiber.Ctx) error {
	var req SessionFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	userID, _ := c.Locals(middleware.SessionUserID).(uint)
	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Please log in first",
		})
	}

	feedback := models.Feedback{
		Username: user.Username,
		Text:     req.Text,
		Rating:   req.Rating,
	}
	if err := h.feedbackService.SubmitFeedback(&feedback); err != nil {
		log.Printf("Error submitting feedback: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit feedback",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// APIFeedbackRequest is the unauthenticated API submission payload. The
// email identifies the submitter for validation purposes but only the
// username is persisted with the entry.
type APIFeedbackRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Text     string `json:"text" validate:"required"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// HandleSubmitAPIFeedback stores a feedback entry submitted over the API.
func (h *FeedbackHandler) HandleSubmitAPIFeedback(c *fiber.Ctx) error {
	var req APIFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	feedback := models.Feedback{
		Username: req.Username,
		Text:     req.Text,
		Rating:   req.Rating,
	}
	if err := h.feedbackService.SubmitFeedback(&feedback); err != nil {
		if errors.Is(err, services.ErrInvalidRating) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit feedback",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// HandleDeleteFeedback removes a feedback entry. Admin-only.
func (h *FeedbackHandler) HandleDeleteFeedback(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	if err := h.feedbackService.DeleteFeedback(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Feedback not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete feedback",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Feedback deleted successfully",
	})
}
