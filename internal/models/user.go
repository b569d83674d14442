package models

import "time"

// Roles a user account can hold. RoleAdmin gates the management surface.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a shop account.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email     string    `json:"email" gorm:"index;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role      string    `json:"role" gorm:"type:varchar(16);default:user" validate:"omitempty,oneof=user admin"`
	CreatedAt time.Time `json:"created_at"`
}
