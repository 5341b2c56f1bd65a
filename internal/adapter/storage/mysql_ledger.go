package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

// MySQLLedger keeps stock in the products table. Reserve relies on the
// conditional UPDATE for atomicity: MySQL serializes writers on the product
// row, so concurrent reservations can never drive stock negative.
type MySQLLedger struct {
	db *gorm.DB
}

func NewMySQLLedger(db *gorm.DB) *MySQLLedger {
	return &MySQLLedger{db: db}
}

func (l *MySQLLedger) CheckAvailability(ctx context.Context, productID string, quantity int) (int, error) {
	var stock int
	err := l.db.WithContext(ctx).
		Model(&ProductModel{}).
		Select("stock").
		Where("id = ?", productID).
		Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, translate(err, "read stock")
	}
	if stock < quantity {
		return quantity - stock, nil
	}
	return 0, nil
}

func (l *MySQLLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	res := l.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock - ?, updated_at = NOW() WHERE id = ? AND stock >= ?",
		quantity, productID, quantity,
	)
	if res.Error != nil {
		return translate(res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	}
	return nil
}

func (l *MySQLLedger) Release(ctx context.Context, productID string, quantity int) error {
	res := l.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock + ?, updated_at = NOW() WHERE id = ?",
		quantity, productID,
	)
	if res.Error != nil {
		return translate(res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}
