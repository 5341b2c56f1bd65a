package domain

import "time"

// Client belongs to exactly one seller. Ownership gates every order that
// references the client.
type Client struct {
	ID            string
	Name          string
	Email         string
	Company       string
	OwnerSellerID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
