package service

import "github.com/mlozan/sales-ops/internal/core/domain"

// OwnershipGuard decides whether a principal may act on a seller-owned
// resource. Pure and side-effect free; it fails closed, so a missing
// principal is always denied.
type OwnershipGuard struct{}

func (OwnershipGuard) Authorize(principalID, resourceOwnerID string) error {
	if principalID == "" {
		return domain.ErrForbidden
	}
	if principalID != resourceOwnerID {
		return domain.ErrForbidden
	}
	return nil
}
