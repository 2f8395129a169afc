// Package catalog owns product availability. Every transition is a single
// conditional UPDATE guarded by the current status, so two callers racing
// for the same product resolve at the database: one wins, the other sees
// zero affected rows.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zephyr-r/Zephyrus/internal/market"
	"github.com/Zephyr-r/Zephyrus/models"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

// New wraps a gorm handle. Passing a transaction handle makes every
// transition part of that transaction, which is how the order engine pairs
// catalog transitions with its own writes.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Availability returns the product's current status.
func (s *Store) Availability(ctx context.Context, productID uint) (string, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Select("id", "status").First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("product %d: %w", productID, market.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return product.Status, nil
}

// Reserve transitions available -> reserved. Exactly one concurrent caller
// can win; losers get ErrConflict.
func (s *Store) Reserve(ctx context.Context, productID uint) error {
	return s.transition(ctx, productID, models.ProductAvailable, models.ProductReserved, market.ErrConflict)
}

// Release transitions reserved -> available (order cancelled).
func (s *Store) Release(ctx context.Context, productID uint) error {
	return s.transition(ctx, productID, models.ProductReserved, models.ProductAvailable, market.ErrInvalidState)
}

// Finalize transitions reserved -> sold (order completed). sold is terminal.
func (s *Store) Finalize(ctx context.Context, productID uint) error {
	return s.transition(ctx, productID, models.ProductReserved, models.ProductSold, market.ErrInvalidState)
}

func (s *Store) transition(ctx context.Context, productID uint, from, to string, stateErr error) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND status = ?", productID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row moved: either the product is missing or it is not in `from`.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("product %d: %w", productID, market.ErrNotFound)
	}
	return fmt.Errorf("product %d is not %s: %w", productID, from, stateErr)
}
