package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports which product could not cover a requested
// reservation and by how many units. Matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID string
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (short %d)", e.ProductID, e.Shortfall)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
