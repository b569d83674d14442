package models

import "time"

// Feedback is a review left by a visitor. Rating is bounded to 1..5.
type Feedback struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(100)" validate:"required"`
	Text      string    `json:"text" gorm:"type:text" validate:"required"`
	Rating    int       `json:"rating" validate:"required,gte=1,lte=5"`
	CreatedAt time.Time `json:"created_at"`
}
