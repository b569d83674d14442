package handlers

import (
	"log"

	"stardewshop/internal/middleware"
	"stardewshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AdminHandler handles the management surface: an overview, product
// mutations reachable from it, and the passcode grant.
type AdminHandler struct {
	productService  *services.ProductService
	orderService    *services.OrderService
	feedbackService *services.FeedbackService
	store           *session.Store
	passcode        string
	productHandler  *ProductHandler
	feedbackHandler *FeedbackHandler
}

// NewAdminHandler creates a new AdminHandler. The product and feedback
// handlers are reused for the gated mutations so the two surfaces share one
// implementation per operation.
func NewAdminHandler(productService *services.ProductService, orderService *services.OrderService, feedbackService *services.FeedbackService, store *session.Store, passcode string, productHandler *ProductHandler, feedbackHandler *FeedbackHandler) *AdminHandler {
	return &AdminHandler{
		productService:  productService,
		orderService:    orderService,
		feedbackService: feedbackService,
		store:           store,
		passcode:        passcode,
		productHandler:  productHandler,
		feedbackHandler: feedbackHandler,
	}
}

// RegisterRoutes registers the management routes. Everything except the
// passcode grant sits behind the session admin gate; the gate accepts either
// the admin role or the passcode capability, kept distinct by the
// middleware.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/manage/passcode", h.HandlePasscodeGrant)

	gate := middleware.AdminRequired(h.store)
	router.Get("/manage", gate, h.HandleManage)
	router.Get("/manage/orders", gate, h.HandleListOrders)
	router.Post("/manage/products", gate, h.productHandler.HandleCreateProduct)
	router.Put("/manage/products/:id", gate, h.productHandler.HandleUpdateProduct)
	router.Delete("/manage/products/:id", gate, h.productHandler.HandleDeleteProduct)
	router.Delete("/manage/feedback/:id", gate, h.feedbackHandler.HandleDeleteFeedback)
}

// HandleManage returns the management overview: products, orders and
// feedback in one document, plus the capability that opened the gate.
func (h *AdminHandler) HandleManage(c *fiber.Ctx) error {
	products, err := h.productService.ListProducts("", "id", "ASC")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	feedbacks, err := h.feedbackService.ListFeedback()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve feedback",
			"error":   err.Error(),
		})
	}

	capability, _ := c.Locals(middleware.LocalAdminCapability).(middleware.Capability)
	return c.JSON(fiber.Map{
		"granted_via": capability.String(),
		"products":    products,
		"orders":      orders,
		"feedback":    feedbacks,
	})
}

// HandleListOrders lists all orders for the management surface.
func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// PasscodeRequest carries the fixed management passcode.
type PasscodeRequest struct {
	Passcode string `json:"passcode"`
}

// HandlePasscodeGrant sets the passcode capability on the session when the
// supplied passcode matches the configured one. This is a weaker tier than
// the admin role and is tracked as its own capability.
func (h *AdminHandler) HandlePasscodeGrant(c *fiber.Ctx) error {
	var req PasscodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if h.passcode == "" || req.Passcode != h.passcode {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied",
		})
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load session",
		})
	}
	sess.Set(middleware.SessionPasscodeOK, true)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save session",
		})
	}

	log.Printf("Passcode capability granted to session")
	return c.JSON(fiber.Map{
		"message": "Management access granted",
	})
}
