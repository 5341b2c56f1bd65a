package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a shared catalog entry. Stock is mutated only through the
// stock ledger; catalog updates never write it directly.
type Product struct {
	ID        string
	Name      string
	Stock     int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
