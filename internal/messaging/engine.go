// Package messaging owns messages between users and the conversation view
// derived from them. Sending is strict; the read paths are lenient and
// degrade to empty results for unknown counterparts.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Zephyr-r/Zephyrus/internal/market"
	"github.com/Zephyr-r/Zephyrus/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxContentLength = 1000

type Engine struct {
	db  *gorm.DB
	log *zap.Logger

	// allowSelf permits sender == receiver. Off by default.
	allowSelf bool
}

func NewEngine(db *gorm.DB, log *zap.Logger, allowSelf bool) *Engine {
	return &Engine{db: db, log: log, allowSelf: allowSelf}
}

type SendInput struct {
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content"`
	ProductID  *uint  `json:"productId,omitempty"`
	OrderID    *uint  `json:"orderId,omitempty"`
}

// Send persists a new unread message. The returned view is rendered from
// the sender's side, so isSelf is true.
func (e *Engine) Send(ctx context.Context, senderID uint, in SendInput) (*models.MessageView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("message content is required: %w", market.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, fmt.Errorf("message content exceeds %d characters: %w", maxContentLength, market.ErrInvalidInput)
	}
	if in.ReceiverID == senderID && !e.allowSelf {
		return nil, fmt.Errorf("cannot message yourself: %w", market.ErrInvalidInput)
	}

	var receiver models.User
	if err := e.db.WithContext(ctx).First(&receiver, in.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid receiver: %w", market.ErrInvalidInput)
		}
		return nil, err
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Content:    content,
		ProductID:  e.existingProduct(ctx, in.ProductID),
		OrderID:    e.existingOrder(ctx, in.OrderID),
	}
	if err := e.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	e.log.Debug("message sent",
		zap.Uint("message_id", message.ID),
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", in.ReceiverID))

	view := message.View(senderID)
	return &view, nil
}

// Conversations groups the user's messages by counterpart: the latest
// message per pair plus the count of unread messages addressed to the
// user, sorted by last activity.
func (e *Engine) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var messages []models.Message
	err := e.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	type unread struct {
		SenderID uint
		Count    int64
	}
	var unreads []unread
	err = e.db.WithContext(ctx).Model(&models.Message{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&unreads).Error
	if err != nil {
		return nil, err
	}
	unreadBy := make(map[uint]int64, len(unreads))
	for _, u := range unreads {
		unreadBy[u.SenderID] = u.Count
	}

	// Messages arrive newest first, so the first message seen for a
	// counterpart is the conversation's latest and the resulting slice is
	// already sorted by last activity.
	latest := make(map[uint]*models.Message)
	counterparts := make([]uint, 0)
	for i := range messages {
		m := &messages[i]
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		if _, seen := latest[other]; !seen {
			latest[other] = m
			counterparts = append(counterparts, other)
		}
	}
	if len(counterparts) == 0 {
		return []models.Conversation{}, nil
	}

	var users []models.User
	if err := e.db.WithContext(ctx).Where("id IN ?", counterparts).Find(&users).Error; err != nil {
		return nil, err
	}
	userBy := make(map[uint]*models.User, len(users))
	for i := range users {
		userBy[users[i].ID] = &users[i]
	}

	conversations := make([]models.Conversation, 0, len(counterparts))
	for _, id := range counterparts {
		counterpart, ok := userBy[id]
		if !ok {
			// Counterpart account was removed; lenient read path skips it.
			continue
		}
		last := latest[id].View(userID)
		conversations = append(conversations, models.Conversation{
			ID:          counterpart.ID,
			Username:    counterpart.Username,
			Avatar:      counterpart.Avatar,
			LastMessage: &last,
			UnreadCount: unreadBy[id],
		})
	}
	return conversations, nil
}

// History returns all messages between the two users in chronological
// order, rendered from userID's side. Unknown counterparts yield an empty
// slice, not an error.
func (e *Engine) History(ctx context.Context, userID, counterpartID uint) ([]models.MessageView, error) {
	var messages []models.Message
	err := e.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].View(userID))
	}
	return views, nil
}

// MarkRead flags every unread message from counterpartID to userID as
// read. Idempotent; matching nothing is not an error.
func (e *Engine) MarkRead(ctx context.Context, userID, counterpartID uint) error {
	return e.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", counterpartID, userID, false).
		Update("read", true).Error
}

// existingProduct keeps the optional reference only if the product exists.
func (e *Engine) existingProduct(ctx context.Context, id *uint) *uint {
	if id == nil {
		return nil
	}
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", *id).Count(&count).Error; err != nil || count == 0 {
		return nil
	}
	return id
}

// existingOrder keeps the optional reference only if the order exists.
func (e *Engine) existingOrder(ctx context.Context, id *uint) *uint {
	if id == nil {
		return nil
	}
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", *id).Count(&count).Error; err != nil || count == 0 {
		return nil
	}
	return id
}
