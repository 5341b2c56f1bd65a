package storage

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order domain.Order) error {
	model := fromDomainOrder(order)
	return translate(r.db.WithContext(ctx).Create(&model).Error, "create order")
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Client").
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find order")
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	return r.list(ctx, "seller_id = ?", sellerID)
}

func (r *GormOrderRepository) ListBySellerAndStatus(ctx context.Context, sellerID string, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, "seller_id = ? AND status = ?", sellerID, string(status))
}

func (r *GormOrderRepository) list(ctx context.Context, cond string, args ...interface{}) ([]domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Client").
		Where(cond, args...).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, translate(err, "list orders")
	}
	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *toDomainOrder(&models[i]))
	}
	return orders, nil
}

// Update replaces the aggregate atomically: header and line items change in
// one transaction, so a reader never sees a half-updated order.
func (r *GormOrderRepository) Update(ctx context.Context, order domain.Order) error {
	model := fromDomainOrder(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&OrderItemModel{}, "order_id = ?", order.ID).Error; err != nil {
			return err
		}
		res := tx.Model(&OrderModel{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"seller_id":  model.SellerID,
				"client_id":  model.ClientID,
				"status":     model.Status,
				"total":      model.Total,
				"updated_at": model.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "update order")
}

func (r *GormOrderRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&OrderItemModel{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&OrderModel{}, "id = ?", id).Error
	})
	return translate(err, "delete order")
}

type clientRevenueRow struct {
	ID            string
	Name          string
	Email         string
	Company       string
	OwnerSellerID string
	Total         decimal.Decimal
}

func (r *GormOrderRepository) TopClients(ctx context.Context, limit int) ([]domain.ClientRevenue, error) {
	var rows []clientRevenueRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.id, c.name, c.email, c.company, c.owner_seller_id, SUM(o.total) AS total
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.status = ?
		GROUP BY c.id, c.name, c.email, c.company, c.owner_seller_id
		ORDER BY total DESC
		LIMIT ?`, string(domain.OrderStatusCompleted), limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "top clients")
	}
	result := make([]domain.ClientRevenue, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.ClientRevenue{
			Client: domain.Client{
				ID:            row.ID,
				Name:          row.Name,
				Email:         row.Email,
				Company:       row.Company,
				OwnerSellerID: row.OwnerSellerID,
			},
			Total: row.Total,
		})
	}
	return result, nil
}

type sellerRevenueRow struct {
	ID    string
	Name  string
	Email string
	Total decimal.Decimal
}

func (r *GormOrderRepository) TopSellers(ctx context.Context, limit int) ([]domain.SellerRevenue, error) {
	var rows []sellerRevenueRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.id, s.name, s.email, SUM(o.total) AS total
		FROM orders o
		JOIN sellers s ON s.id = o.seller_id
		WHERE o.status = ?
		GROUP BY s.id, s.name, s.email
		ORDER BY total DESC
		LIMIT ?`, string(domain.OrderStatusCompleted), limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "top sellers")
	}
	result := make([]domain.SellerRevenue, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.SellerRevenue{
			Seller: domain.Seller{ID: row.ID, Name: row.Name, Email: row.Email},
			Total:  row.Total,
		})
	}
	return result, nil
}
