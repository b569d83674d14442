package handlers

import (
	"errors"
	"log"

	"stardewshop/internal/repositories"
	"stardewshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles the JSON API order routes.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterAPIRoutes registers the order API. Reads go through the supplied
// admin gate; order creation is the unauthenticated guest path and stays
// open on purpose.
func (h *OrderHandler) RegisterAPIRoutes(router fiber.Router, adminGate ...fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateGuestOrder)
	orderRoutes.Get("/", append(adminGate, h.HandleGetOrders)...)
	orderRoutes.Get("/:id", append(adminGate, h.HandleGetOrderByID)...)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	order, err := h.service.GetOrderByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// GuestOrderRequest is the unauthenticated order creation payload. The buyer
// is identified by username and email only; this relaxed tier is distinct
// from session checkout.
type GuestOrderRequest struct {
	Username string                    `json:"username" validate:"required"`
	Email    string                    `json:"email" validate:"required,email"`
	Items    []services.GuestOrderItem `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateGuestOrder creates an order on the guest path. Unknown product
// ids in the item list contribute zero and are skipped.
func (h *OrderHandler) HandleCreateGuestOrder(c *fiber.Ctx) error {
	var req GuestOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.GuestCheckout(req.Username, req.Email, req.Items)
	if err != nil {
		if errors.Is(err, services.ErrUnknownBuyer) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "No user matches the supplied username and email",
			})
		}
		log.Printf("Error creating guest order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
