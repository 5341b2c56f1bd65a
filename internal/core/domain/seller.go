package domain

import "time"

// Seller is an authenticated principal. PasswordHash never leaves the
// identity service.
type Seller struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
