package models

import "gorm.io/gorm"

// User represents a registered member of the directory. IsAdmin is assigned at
// creation only; there is no in-place promotion path.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name         string `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password     string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	IsAdmin      bool   `json:"is_admin" gorm:"default:false"`
	BusinessName string `json:"business_name" gorm:"type:varchar(255)"`
	PhoneNumber  string `json:"phone_number" gorm:"type:varchar(50)"`
	Address      string `json:"address" gorm:"type:varchar(255)"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
