package models

import "time"

// Order states. pending is the only non-terminal state.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Payment methods accepted at order creation.
var PaymentMethods = []string{"face_to_face", "credit_card", "debit_card", "paypal"}

// Confirmations tracks the two-sided completion handshake. The order only
// completes once both flags are true.
type Confirmations struct {
	Buyer  bool `gorm:"column:buyer_confirmed;default:false" json:"buyer"`
	Seller bool `gorm:"column:seller_confirmed;default:false" json:"seller"`
}

type Order struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProductID uint `gorm:"index" json:"product_id"`
	BuyerID   uint `gorm:"index" json:"buyer_id"`
	SellerID  uint `gorm:"index" json:"seller_id"`

	// Price is a snapshot of the product price at creation time. Later
	// product edits never change it.
	Price float64 `gorm:"not null" json:"price"`

	Status        string        `gorm:"default:'pending';size:20;index" json:"status"`
	Confirmations Confirmations `gorm:"embedded" json:"confirmations"`
	PaymentMethod string        `gorm:"size:30;not null" json:"payment_method"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Product Product `gorm:"foreignKey:ProductID" json:"product"`
	Buyer   User    `gorm:"foreignKey:BuyerID" json:"buyer"`
	Seller  User    `gorm:"foreignKey:SellerID" json:"seller"`
}

// Terminal reports whether the order can no longer be mutated.
func (o *Order) Terminal() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

// PartyOf returns which side of the order the user is on, or "" if neither.
func (o *Order) PartyOf(userID uint) string {
	switch userID {
	case o.BuyerID:
		return "buyer"
	case o.SellerID:
		return "seller"
	}
	return ""
}
