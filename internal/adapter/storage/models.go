package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

type SellerModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:191"`
	Email        string `gorm:"uniqueIndex;size:191"`
	PasswordHash string `gorm:"size:191"`
	CreatedAt    time.Time
}

func (SellerModel) TableName() string { return "sellers" }

type ProductModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:191;index"`
	Stock     int
	Price     decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string { return "products" }

type ClientModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"size:191"`
	Email         string `gorm:"uniqueIndex;size:191"`
	Company       string `gorm:"size:191"`
	OwnerSellerID string `gorm:"index;size:36"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ClientModel) TableName() string { return "clients" }

type OrderModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	SellerID  string `gorm:"index;size:36"`
	ClientID  string `gorm:"index;size:36"`
	Status    string          `gorm:"size:16"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items  []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Client *ClientModel     `gorm:"foreignKey:ClientID"`
}

func (OrderModel) TableName() string { return "orders" }

type OrderItemModel struct {
	OrderID   string `gorm:"primaryKey;size:36"`
	ProductID string `gorm:"primaryKey;size:36"`
	Quantity  int
}

func (OrderItemModel) TableName() string { return "order_items" }

// Migrate creates or updates the schema for every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SellerModel{}, &ProductModel{}, &ClientModel{}, &OrderModel{}, &OrderItemModel{})
}

func toDomainSeller(m *SellerModel) *domain.Seller {
	return &domain.Seller{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func fromDomainSeller(s domain.Seller) SellerModel {
	return SellerModel{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt,
	}
}

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        m.ID,
		Name:      m.Name,
		Stock:     m.Stock,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainProduct(p domain.Product) ProductModel {
	return ProductModel{
		ID:        p.ID,
		Name:      p.Name,
		Stock:     p.Stock,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toDomainClient(m *ClientModel) *domain.Client {
	return &domain.Client{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Company:       m.Company,
		OwnerSellerID: m.OwnerSellerID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromDomainClient(c domain.Client) ClientModel {
	return ClientModel{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Company:       c.Company,
		OwnerSellerID: c.OwnerSellerID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:        m.ID,
		SellerID:  m.SellerID,
		ClientID:  m.ClientID,
		Status:    domain.OrderStatus(m.Status),
		Total:     m.Total,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, it := range m.Items {
		order.Items = append(order.Items, domain.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if m.Client != nil {
		order.Client = toDomainClient(m.Client)
	}
	return order
}

func fromDomainOrder(o domain.Order) OrderModel {
	m := OrderModel{
		ID:        o.ID,
		SellerID:  o.SellerID,
		ClientID:  o.ClientID,
		Status:    string(o.Status),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return m
}
