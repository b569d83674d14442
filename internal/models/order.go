package models

import "time"

// OrderItem is one line of an order: a product and the quantity bought.
type OrderItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OrderID   uint `json:"order_id" gorm:"index"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Order represents a placed order. TotalPrice is recomputed server-side
// from product rows at checkout time and never taken from the client.
type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	UserID     uint        `json:"user_id" gorm:"index"`
	TotalPrice float64     `json:"total_price"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time   `json:"created_at"`
}
