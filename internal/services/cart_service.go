package services

import (
	"fmt"

	"stardewshop/internal/cart"
	"stardewshop/internal/repositories"
)

// CartLine is one cart row joined against the live product record.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// CartView is the rendered cart: its lines and the running total.
type CartView struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

// CartService resolves the session cart against the product store.
type CartService struct {
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		productRepo: productRepo,
	}
}

// View joins the cart mapping against current product rows. Entries whose
// product no longer exists are silently skipped; subtotal is price times
// quantity at current prices.
func (s *CartService) View(c *cart.Cart) (*CartView, error) {
	view := &CartView{Items: []CartLine{}}
	if c.IsEmpty() {
		return view, nil
	}

	products, err := s.productRepo.GetByIDs(c.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	for _, p := range products {
		quantity := c.Quantity(p.ID)
		if quantity <= 0 {
			continue
		}
		subtotal := p.Price * float64(quantity)
		view.Items = append(view.Items, CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			Image:     p.Image,
			Quantity:  quantity,
			Subtotal:  subtotal,
		})
		view.Total += subtotal
	}
	return view, nil
}
