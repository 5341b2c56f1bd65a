package storage

import (
	"context"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

// Open connects to MySQL and returns the shared GORM handle.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open mysql")
	}
	return db, nil
}

// translate maps storage-level errors onto the domain taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	}
	return pkgerrors.Wrap(err, what)
}

type GormSellerRepository struct {
	db *gorm.DB
}

func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

func (r *GormSellerRepository) Create(ctx context.Context, seller domain.Seller) error {
	model := fromDomainSeller(seller)
	return translate(r.db.WithContext(ctx).Create(&model).Error, "create seller")
}

func (r *GormSellerRepository) FindByID(ctx context.Context, id string) (*domain.Seller, error) {
	var model SellerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find seller")
	}
	return toDomainSeller(&model), nil
}

func (r *GormSellerRepository) FindByEmail(ctx context.Context, email string) (*domain.Seller, error) {
	var model SellerModel
	if err := r.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		return nil, translate(err, "find seller")
	}
	return toDomainSeller(&model), nil
}

type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(ctx context.Context, client domain.Client) error {
	model := fromDomainClient(client)
	return translate(r.db.WithContext(ctx).Create(&model).Error, "create client")
}

func (r *GormClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find client")
	}
	return toDomainClient(&model), nil
}

func (r *GormClientRepository) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		return nil, translate(err, "find client")
	}
	return toDomainClient(&model), nil
}

func (r *GormClientRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Client, error) {
	var models []ClientModel
	if err := r.db.WithContext(ctx).Where("owner_seller_id = ?", sellerID).Find(&models).Error; err != nil {
		return nil, translate(err, "list clients")
	}
	clients := make([]domain.Client, 0, len(models))
	for i := range models {
		clients = append(clients, *toDomainClient(&models[i]))
	}
	return clients, nil
}

func (r *GormClientRepository) Update(ctx context.Context, client domain.Client) error {
	model := fromDomainClient(client)
	return translate(r.db.WithContext(ctx).Save(&model).Error, "update client")
}

func (r *GormClientRepository) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Delete(&ClientModel{}, "id = ?", id).Error, "delete client")
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) Create(ctx context.Context, product domain.Product) error {
	model := fromDomainProduct(product)
	return translate(r.db.WithContext(ctx).Create(&model).Error, "create product")
}

func (r *GormCatalogRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find product")
	}
	return toDomainProduct(&model), nil
}

func (r *GormCatalogRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, translate(err, "find products")
	}
	products := make(map[string]domain.Product, len(models))
	for i := range models {
		products[models[i].ID] = *toDomainProduct(&models[i])
	}
	return products, nil
}

func (r *GormCatalogRepository) List(ctx context.Context) ([]domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, translate(err, "list products")
	}
	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, *toDomainProduct(&models[i]))
	}
	return products, nil
}

func (r *GormCatalogRepository) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).
		Where("name LIKE ?", "%"+query+"%").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, translate(err, "search products")
	}
	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, *toDomainProduct(&models[i]))
	}
	return products, nil
}

// Update persists everything except stock, which only the ledger may touch.
func (r *GormCatalogRepository) Update(ctx context.Context, product domain.Product) error {
	err := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":       product.Name,
			"price":      product.Price,
			"updated_at": product.UpdatedAt,
		}).Error
	return translate(err, "update product")
}

func (r *GormCatalogRepository) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Delete(&ProductModel{}, "id = ?", id).Error, "delete product")
}
