package port

import "context"

// StockLedger is the sole mutator of product stock. Reserve and Release must
// be linearizable per product: concurrent reservations serialize so that
// stock never goes negative under any interleaving.
type StockLedger interface {
	// CheckAvailability reports how many units are missing to cover the
	// requested quantity. Zero means the reservation would currently succeed.
	// Read-only; the answer may be stale by the time Reserve runs.
	CheckAvailability(ctx context.Context, productID string, quantity int) (shortfall int, err error)

	// Reserve atomically decrements stock by quantity if stock >= quantity,
	// otherwise fails without side effect (domain.ErrInsufficientStock).
	Reserve(ctx context.Context, productID string, quantity int) error

	// Release atomically increments stock by quantity. It is the inverse of a
	// prior successful Reserve and always succeeds barring I/O errors.
	Release(ctx context.Context, productID string, quantity int) error
}
