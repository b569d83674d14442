package handlers

import (
	"errors"
	"log"

	"stardewshop/internal/cart"
	"stardewshop/internal/middleware"
	"stardewshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CartHandler handles the session cart routes and checkout.
type CartHandler struct {
	cartService  *services.CartService
	orderService *services.OrderService
	store        *session.Store
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, orderService *services.OrderService, store *session.Store) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
		store:        store,
	}
}

// RegisterRoutes registers the cart routes. Checkout and the order list
// additionally require an authenticated session.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/cart", h.HandleViewCart)
	router.Post("/add_to_cart/:id", h.HandleAddToCart)
	router.Post("/update_cart_item/:id/:action", h.HandleUpdateCartItem)
	router.Post("/clear_cart", h.HandleClearCart)
	router.Post("/checkout", middleware.LoginRequired(h.store), h.HandleCheckout)
	router.Get("/orders", middleware.LoginRequired(h.store), h.HandleMyOrders)
}

// loadCart decodes the session cart, upgrading legacy payloads. Unreadable
// payloads reset to an empty cart rather than failing the request.
func loadCart(sess *session.Session) *cart.Cart {
	raw, _ := sess.Get(middleware.SessionCart).(string)
	c, err := cart.Decode(raw)
	if err != nil {
		log.Printf("Resetting unreadable cart payload: %v", err)
		return cart.New()
	}
	return c
}

// saveCart writes the cart back into the session and persists it.
func saveCart(sess *session.Session, c *cart.Cart) error {
	raw, err := c.Encode()
	if err != nil {
		return err
	}
	sess.Set(middleware.SessionCart, raw)
	return sess.Save()
}

func (h *CartHandler) session(c *fiber.Ctx) (*session.Session, error) {
	sess, err := h.store.Get(c)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load session",
		})
	}
	return sess, nil
}

// HandleViewCart joins the cart against current product rows and returns
// the lines with subtotals and the running total.
func (h *CartHandler) HandleViewCart(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	view, err := h.cartService.View(loadCart(sess))
	if err != nil {
		log.Printf("Error building cart view: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(view)
}

// HandleAddToCart increments the cart entry for the given product by one.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	productID, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	sess, respErr := h.session(c)
	if sess == nil {
		return respErr
	}

	cartValue := loadCart(sess)
	cartValue.Add(productID)
	if err := saveCart(sess, cartValue); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Item added to cart",
		"cart_count": cartValue.Count(),
	})
}

// HandleUpdateCartItem applies an increase or decrease action to one entry.
// Decreasing a quantity of 1 removes the entry.
func (h *CartHandler) HandleUpdateCartItem(c *fiber.Ctx) error {
	productID, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	sess, respErr := h.session(c)
	if sess == nil {
		return respErr
	}

	cartValue := loadCart(sess)
	if err := cartValue.Adjust(productID, c.Params("action")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	if err := saveCart(sess, cartValue); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Cart updated",
		"cart_count": cartValue.Count(),
	})
}

// HandleClearCart removes every cart entry.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	sess, respErr := h.session(c)
	if sess == nil {
		return respErr
	}

	cartValue := loadCart(sess)
	cartValue.Clear()
	if err := saveCart(sess, cartValue); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}

// HandleCheckout turns the session cart into a persisted order. The cart is
// cleared only after the order and its line items committed.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.SessionUserID).(uint)

	sess, respErr := h.session(c)
	if sess == nil {
		return respErr
	}

	cartValue := loadCart(sess)
	order, err := h.orderService.Checkout(userID, cartValue)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart is empty, nothing to check out.",
			})
		}
		log.Printf("Error during checkout for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	cartValue.Clear()
	if err := saveCart(sess, cartValue); err != nil {
		log.Printf("Error clearing cart after checkout: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed successfully. Thank you for your purchase!",
		"order":   order,
	})
}

// HandleMyOrders lists the calling user's orders.
func (h *CartHandler) HandleMyOrders(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.SessionUserID).(uint)

	orders, err := h.orderService.GetOrdersByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}
