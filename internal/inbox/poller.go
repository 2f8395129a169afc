// Package inbox is the consumer-side inbox: a polling control loop that
// keeps a conversation list and the selected conversation's transcript
// close to the server state. Delivery is periodic refetch, not push; local
// optimistic updates are overwritten by the next authoritative fetch.
package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/Zephyr-r/Zephyrus/internal/messaging"
	"github.com/Zephyr-r/Zephyrus/models"
	"go.uber.org/zap"
)

// DefaultInterval matches the server's freshness contract: new messages
// become visible within one polling interval.
const DefaultInterval = 60 * time.Second

// Service is the messaging surface the poller runs against, either the
// HTTP client or the engine directly.
type Service interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	History(ctx context.Context, counterpartID uint) ([]models.MessageView, error)
	MarkRead(ctx context.Context, counterpartID uint) error
	Send(ctx context.Context, in messaging.SendInput) (*models.MessageView, error)
}

// Seed is a counterpart supplied by navigation (e.g. "message seller" from
// a product page) which may not have a conversation yet.
type Seed struct {
	CounterpartID uint
	Username      string
	Avatar        string
}

type Poller struct {
	service  Service
	log      *zap.Logger
	interval time.Duration
	seed     *Seed

	// kick wakes the run loop to restart the history interval after a
	// selection change.
	kick chan struct{}

	mu            sync.Mutex
	conversations []models.Conversation
	selected      uint
	transcript    []models.MessageView
	// generation tags history fetches; a response whose generation is no
	// longer current belongs to a previous selection and is discarded.
	generation uint64
}

func NewPoller(service Service, log *zap.Logger, interval time.Duration, seed *Seed) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		service:  service,
		log:      log,
		interval: interval,
		seed:     seed,
		kick:     make(chan struct{}, 1),
	}
}

// Run drives the inbox until ctx is cancelled. On activation it fetches
// the conversation list (selecting the seeded counterpart if any), then
// refetches the list and the selected transcript on the polling interval.
func (p *Poller) Run(ctx context.Context) {
	p.refreshConversations(ctx)

	if seeded := p.seededSelection(); seeded != 0 {
		p.Select(ctx, seeded)
	}

	listTicker := time.NewTicker(p.interval)
	defer listTicker.Stop()
	historyTicker := time.NewTicker(p.interval)
	defer historyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-listTicker.C:
			p.refreshConversations(ctx)
		case <-historyTicker.C:
			p.refreshHistory(ctx, p.currentGeneration())
		case <-p.kick:
			// Selection changed: the interval restarts from now.
			historyTicker.Reset(p.interval)
		}
	}
}

// Select makes counterpartID the active conversation: fetch its history
// immediately, mark it read on the server, and zero the local unread count
// optimistically. The next list poll is authoritative.
func (p *Poller) Select(ctx context.Context, counterpartID uint) {
	p.mu.Lock()
	p.selected = counterpartID
	p.generation++
	gen := p.generation
	p.transcript = nil
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}

	p.refreshHistory(ctx, gen)

	if err := p.service.MarkRead(ctx, counterpartID); err != nil {
		p.log.Warn("mark read failed", zap.Uint("counterpart_id", counterpartID), zap.Error(err))
		return
	}

	p.mu.Lock()
	for i := range p.conversations {
		if p.conversations[i].ID == counterpartID {
			p.conversations[i].UnreadCount = 0
		}
	}
	p.mu.Unlock()
}

// Send delivers a message to the selected counterpart and applies the
// result optimistically: appended to the transcript and patched into the
// conversation preview without waiting for the next poll.
func (p *Poller) Send(ctx context.Context, content string, productID, orderID *uint) (*models.MessageView, error) {
	p.mu.Lock()
	counterpartID := p.selected
	p.mu.Unlock()

	sent, err := p.service.Send(ctx, messaging.SendInput{
		ReceiverID: counterpartID,
		Content:    content,
		ProductID:  productID,
		OrderID:    orderID,
	})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.selected == counterpartID {
		p.transcript = append(p.transcript, *sent)
	}
	for i := range p.conversations {
		if p.conversations[i].ID == counterpartID {
			preview := *sent
			p.conversations[i].LastMessage = &preview
		}
	}
	p.mu.Unlock()
	return sent, nil
}

// Conversations returns a snapshot of the current conversation list.
func (p *Poller) Conversations() []models.Conversation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Conversation, len(p.conversations))
	copy(out, p.conversations)
	return out
}

// Selected returns the active counterpart id, 0 if none.
func (p *Poller) Selected() uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Transcript returns a snapshot of the selected conversation's messages.
func (p *Poller) Transcript() []models.MessageView {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.MessageView, len(p.transcript))
	copy(out, p.transcript)
	return out
}

func (p *Poller) refreshConversations(ctx context.Context) {
	fetched, err := p.service.Conversations(ctx)
	if err != nil {
		// The next tick is the retry; nothing is overwritten on failure.
		p.log.Warn("conversation refresh failed", zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.conversations = fetched
	if p.seed != nil && !p.hasConversationLocked(p.seed.CounterpartID) {
		placeholder := models.Conversation{
			ID:       p.seed.CounterpartID,
			Username: p.seed.Username,
			Avatar:   p.seed.Avatar,
		}
		p.conversations = append([]models.Conversation{placeholder}, p.conversations...)
	}
}

func (p *Poller) refreshHistory(ctx context.Context, gen uint64) {
	p.mu.Lock()
	counterpartID := p.selected
	p.mu.Unlock()
	if counterpartID == 0 {
		return
	}

	fetched, err := p.service.History(ctx, counterpartID)
	if err != nil {
		p.log.Warn("history refresh failed", zap.Uint("counterpart_id", counterpartID), zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		// A newer selection was made while this request was in flight.
		return
	}
	p.transcript = fetched
}

func (p *Poller) seededSelection() uint {
	if p.seed == nil {
		return 0
	}
	return p.seed.CounterpartID
}

func (p *Poller) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

func (p *Poller) hasConversationLocked(counterpartID uint) bool {
	for i := range p.conversations {
		if p.conversations[i].ID == counterpartID {
			return true
		}
	}
	return false
}
