package models

import (
	"time"

	"gorm.io/gorm"
)

// Product availability states. Transitions only move
// available -> reserved -> sold, or reserved -> available on cancellation.
const (
	ProductAvailable = "available"
	ProductReserved  = "reserved"
	ProductSold      = "sold"
)

type Product struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SellerID uint `gorm:"index" json:"seller_id"`

	Title       string   `gorm:"size:100;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Price       float64  `gorm:"not null" json:"price"`
	Category    string   `gorm:"size:50;index" json:"category"`  // electronics, clothing, books, ...
	Condition   string   `gorm:"size:20" json:"condition"`       // new, like-new, good, fair, poor
	Images      []string `gorm:"serializer:json" json:"images"`  // ordered, at least one
	Status      string   `gorm:"default:'available';size:20;index" json:"status"`

	Views int `gorm:"default:0" json:"views"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Seller User `gorm:"foreignKey:SellerID" json:"seller"`
}
