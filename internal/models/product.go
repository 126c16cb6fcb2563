package models

import "time"

// Product represents a product in the store catalog.
// IDs are assigned by the database and only ever grow.
type Product struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Price      int64     `json:"price" gorm:"not null"`
	Department string    `json:"department" gorm:"type:varchar(100)"`
	Aisle      string    `json:"aisle" gorm:"type:varchar(100)"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductInput carries the fields accepted when adding a product.
type ProductInput struct {
	Name       string `form:"name" validate:"required,max=100"`
	Price      int64  `form:"price" validate:"gte=0"`
	Department string `form:"department" validate:"omitempty,max=100"`
	Aisle      string `form:"aisle" validate:"omitempty,max=100"`
}
