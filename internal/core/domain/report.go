package domain

import "github.com/shopspring/decimal"

// ClientRevenue is a report row: a client and the sum of its completed orders.
type ClientRevenue struct {
	Client Client
	Total  decimal.Decimal
}

// SellerRevenue is a report row: a seller and the sum of its completed orders.
type SellerRevenue struct {
	Seller Seller
	Total  decimal.Decimal
}
