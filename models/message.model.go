package models

import (
	"time"

	"gorm.io/gorm"
)

type Message struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	SenderID   uint `gorm:"index:idx_msg_pair;not null" json:"sender_id"`
	ReceiverID uint `gorm:"index:idx_msg_pair;index:idx_msg_unread;not null" json:"receiver_id"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Optional references to the product/order the chat is about.
	ProductID *uint `gorm:"index" json:"product_id,omitempty"`
	OrderID   *uint `gorm:"index" json:"order_id,omitempty"`

	Read bool `gorm:"default:false;index:idx_msg_unread" json:"read"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// MessageView is a message as seen by one user. IsSelf is computed for the
// viewing user at read time and never stored.
type MessageView struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	IsSelf    bool      `json:"isSelf"`
	ProductID *uint     `json:"product_id,omitempty"`
	OrderID   *uint     `json:"order_id,omitempty"`
}

// View renders the message relative to viewerID.
func (m *Message) View(viewerID uint) MessageView {
	return MessageView{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		IsSelf:    m.SenderID == viewerID,
		ProductID: m.ProductID,
		OrderID:   m.OrderID,
	}
}

// Conversation is derived from the message table, never persisted: the
// counterpart, the latest message between the two users and how many of
// their messages the current user has not read yet.
type Conversation struct {
	ID          uint         `json:"id"` // counterpart user id
	Username    string       `json:"username"`
	Avatar      string       `json:"avatar"`
	LastMessage *MessageView `json:"lastMessage"`
	UnreadCount int64        `json:"unreadCount"`
}
