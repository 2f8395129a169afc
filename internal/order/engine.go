// Package order implements the order lifecycle: creation with product
// reservation, the dual-confirmation completion handshake and unilateral
// cancellation. Every mutation pairs the order write with its catalog
// transition inside one transaction, so the two commit or roll back
// together.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zephyr-r/Zephyrus/internal/catalog"
	"github.com/Zephyr-r/Zephyrus/internal/market"
	"github.com/Zephyr-r/Zephyrus/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// CreateInput is the buyer-supplied part of a new order.
type CreateInput struct {
	ProductID     uint   `json:"productId"`
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes"`
}

// Filter narrows List results.
type Filter struct {
	Role   string // "buyer", "seller" or "" for either side
	Status string
	Page   int
	Limit  int
}

func validPaymentMethod(method string) bool {
	for _, m := range models.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Create reserves the product and persists a pending order in one
// transaction. The order price is copied from the product row at this
// instant; later product edits do not touch it.
func (e *Engine) Create(ctx context.Context, buyerID uint, in CreateInput) (*models.Order, error) {
	if in.PaymentMethod == "" {
		return nil, fmt.Errorf("payment method is required: %w", market.ErrInvalidInput)
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, market.ErrInvalidInput)
	}

	var created models.Order
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", in.ProductID, market.ErrNotFound)
			}
			return err
		}
		if product.SellerID == buyerID {
			return market.ErrSelfTransaction
		}

		// One of two concurrent buyers wins the reservation here.
		if err := catalog.New(tx).Reserve(ctx, product.ID); err != nil {
			return err
		}

		created = models.Order{
			ProductID:     product.ID,
			BuyerID:       buyerID,
			SellerID:      product.SellerID,
			Price:         product.Price,
			Status:        models.OrderPending,
			PaymentMethod: in.PaymentMethod,
			Notes:         in.Notes,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order created",
		zap.Uint("order_id", created.ID),
		zap.Uint("product_id", created.ProductID),
		zap.Uint("buyer_id", buyerID))
	return e.load(ctx, created.ID)
}

// Confirm records the acting party's completion confirmation. Once both
// sides have confirmed, the order completes and the product is finalized,
// exactly once: completion is a conditional update guarded by the pending
// status and both flags, so only one caller can move the order.
func (e *Engine) Confirm(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockedOrder(tx, orderID, userID)
		if err != nil {
			return err
		}

		column := "buyer_confirmed"
		if o.PartyOf(userID) == "seller" {
			column = "seller_confirmed"
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderPending).
			Update(column, true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race against completion/cancellation.
			return fmt.Errorf("order %d is no longer pending: %w", orderID, market.ErrInvalidState)
		}

		res = tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND buyer_confirmed = ? AND seller_confirmed = ?",
				orderID, models.OrderPending, true, true).
			Update("status", models.OrderCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Other side not confirmed yet; the order stays pending.
			return nil
		}

		// This caller completed the order, so it finalizes the product.
		// An error here rolls back the completion as well.
		if err := catalog.New(tx).Finalize(ctx, o.ProductID); err != nil {
			return err
		}
		e.log.Info("order completed", zap.Uint("order_id", orderID), zap.Uint("product_id", o.ProductID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.load(ctx, orderID)
}

// Cancel moves a pending order to cancelled and releases the product.
// Either party may cancel unilaterally; completion is the only bilateral
// transition.
func (e *Engine) Cancel(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockedOrder(tx, orderID, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderPending).
			Update("status", models.OrderCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d is no longer pending: %w", orderID, market.ErrInvalidState)
		}

		if err := catalog.New(tx).Release(ctx, o.ProductID); err != nil {
			return err
		}
		e.log.Info("order cancelled", zap.Uint("order_id", orderID), zap.Uint("product_id", o.ProductID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.load(ctx, orderID)
}

// Get returns the order if the user is one of its parties.
func (e *Engine) Get(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	o, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PartyOf(userID) == "" {
		return nil, fmt.Errorf("order %d: %w", orderID, market.ErrForbidden)
	}
	return o, nil
}

// List returns the user's orders, newest first.
func (e *Engine) List(ctx context.Context, userID uint, f Filter) ([]models.Order, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Order{})
	switch f.Role {
	case "buyer":
		query = query.Where("buyer_id = ?", userID)
	case "seller":
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	var orders []models.Order
	err := query.Session(&gorm.Session{}).
		Preload("Product").
		Preload("Buyer").
		Preload("Seller").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// lockedOrder loads the order inside the caller's transaction and checks
// the acting user is a party and the order is still mutable.
func lockedOrder(tx *gorm.DB, orderID, userID uint) (*models.Order, error) {
	var o models.Order
	if err := tx.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, market.ErrNotFound)
		}
		return nil, err
	}
	if o.PartyOf(userID) == "" {
		return nil, fmt.Errorf("order %d: %w", orderID, market.ErrForbidden)
	}
	if o.Terminal() {
		return nil, fmt.Errorf("order %d is already %s: %w", orderID, o.Status, market.ErrInvalidState)
	}
	return &o, nil
}

func (e *Engine) load(ctx context.Context, orderID uint) (*models.Order, error) {
	var o models.Order
	err := e.db.WithContext(ctx).
		Preload("Product").
		Preload("Buyer").
		Preload("Seller").
		First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, market.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
