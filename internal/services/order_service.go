package services

import (
	"errors"
	"fmt"
	"log"

	"stardewshop/internal/cart"
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
	"stardewshop/pkg/rabbitmq"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no entries.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownBuyer is returned by the guest path when no user matches the
	// supplied username and email pair.
	ErrUnknownBuyer = errors.New("no user matches the supplied username and email")
)

// GuestOrderItem is one requested line on the unauthenticated order path.
type GuestOrderItem struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

// OrderService handles checkout and order reads.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	mqClient    *rabbitmq.Client
}

// NewOrderService creates a new OrderService. mqClient may be nil, in which
// case order events are not published.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mqClient:    mqClient,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByUser retrieves the orders placed by one user.
func (s *OrderService) GetOrdersByUser(userID uint) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// Checkout reconciles the session cart against current product rows and
// persists the order with its line items as one atomic unit. Totals are
// recomputed server-side; products deleted since they were carted contribute
// nothing and produce no line item. The caller clears the cart only after a
// nil return.
func (s *OrderService) Checkout(userID uint, c *cart.Cart) (*models.Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	products, err := s.productRepo.GetByIDs(c.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	var total float64
	var items []models.OrderItem
	for _, p := range products {
		quantity := c.Quantity(p.ID)
		if quantity <= 0 {
			continue
		}
		total += p.Price * float64(quantity)
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Quantity:  quantity,
		})
	}

	order := &models.Order{
		UserID:     userID,
		TotalPrice: total,
		Items:      items,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishOrderCreated(order)
	return order, nil
}

// GuestCheckout creates an order without a session. The buyer is resolved by
// exact username and email match, never by password; this is a deliberately
// weaker identity tier exposed only on the unauthenticated API route.
// Unknown product ids in the request are silently skipped and contribute
// zero to the total.
func (s *OrderService) GuestCheckout(username, email string, items []GuestOrderItem) (*models.Order, error) {
	user, err := s.userRepo.GetByUsernameAndEmail(username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownBuyer
		}
		return nil, fmt.Errorf("failed to resolve buyer: %w", err)
	}

	var total float64
	var orderItems []models.OrderItem
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		total += product.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
		})
	}

	order := &models.Order{
		UserID:     user.ID,
		TotalPrice: total,
		Items:      orderItems,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create guest order: %w", err)
	}

	s.publishOrderCreated(order)
	return order, nil
}

// publishOrderCreated emits an order event when a broker is configured.
// Publishing is best-effort and never fails the order.
func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.mqClient == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		ItemCount:  len(order.Items),
	}
	if err := s.mqClient.PublishOrderCreated(event); err != nil {
		log.Printf("Warning: failed to publish order created event for order %d: %v", order.ID, err)
	}
}
