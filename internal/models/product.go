package models

import "time"

// Product represents an item for sale in the shop.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Price     float64   `json:"price" validate:"gte=0"`
	Category  string    `json:"category" gorm:"type:varchar(100);default:General"`
	Image     string    `json:"image" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	CreatedAt time.Time `json:"created_at"`
}
