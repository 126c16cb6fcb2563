package models

import "time"

// User represents an account of the store.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username       string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"` // No json tag for security
	IsAdmin        bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
}
