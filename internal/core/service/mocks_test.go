package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/port"
)

// memLedger is a mutex-guarded in-memory stock ledger. failReserves makes
// the next N Reserve calls fail as if a concurrent request had consumed the
// stock between check and apply; failReleaseOf makes every Release of that
// product fail as if the backing store dropped the connection.
type memLedger struct {
	mu            sync.Mutex
	stock         map[string]int
	reserveCalls  int
	releaseCalls  int
	failReserves  int
	failReleaseOf string
}

func newMemLedger(stock map[string]int) *memLedger {
	s := make(map[string]int, len(stock))
	for k, v := range stock {
		s[k] = v
	}
	return &memLedger{stock: s}
}

func (m *memLedger) CheckAvailability(_ context.Context, productID string, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stock[productID]
	if !ok {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if stock < quantity {
		return quantity - stock, nil
	}
	return 0, nil
}

func (m *memLedger) Reserve(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	if m.failReserves > 0 {
		m.failReserves--
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	}
	if m.stock[productID] < quantity {
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	}
	m.stock[productID] -= quantity
	return nil
}

func (m *memLedger) Release(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	if m.failReleaseOf == productID {
		return fmt.Errorf("release %s: connection lost", productID)
	}
	m.stock[productID] += quantity
	return nil
}

func (m *memLedger) stockOf(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[productID]
}

func (m *memLedger) calls() (reserves, releases int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveCalls, m.releaseCalls
}

type memClientRepo struct {
	mu      sync.Mutex
	clients map[string]domain.Client
}

func newMemClientRepo(clients ...domain.Client) *memClientRepo {
	m := &memClientRepo{clients: make(map[string]domain.Client)}
	for _, c := range clients {
		m.clients[c.ID] = c
	}
	return m
}

func (m *memClientRepo) Create(_ context.Context, client domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	return nil
}

func (m *memClientRepo) FindByID(_ context.Context, id string) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	return &client, nil
}

func (m *memClientRepo) FindByEmail(_ context.Context, email string) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Email == email {
			client := c
			return &client, nil
		}
	}
	return nil, fmt.Errorf("client %s: %w", email, domain.ErrNotFound)
}

func (m *memClientRepo) ListBySeller(_ context.Context, sellerID string) ([]domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Client
	for _, c := range m.clients {
		if c.OwnerSellerID == sellerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memClientRepo) Update(_ context.Context, client domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return fmt.Errorf("client %s: %w", client.ID, domain.ErrNotFound)
	}
	m.clients[client.ID] = client
	return nil
}

func (m *memClientRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, id)
	return nil
}

type memCatalogRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMemCatalogRepo(products ...domain.Product) *memCatalogRepo {
	m := &memCatalogRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memCatalogRepo) Create(_ context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *memCatalogRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return &product, nil
}

func (m *memCatalogRepo) FindByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memCatalogRepo) List(_ context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalogRepo) Search(_ context.Context, query string, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if len(out) == limit {
			break
		}
		if containsFold(p.Name, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalogRepo) Update(_ context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.products[product.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrNotFound)
	}
	// Stock stays under ledger control, mirroring the real adapter.
	product.Stock = current.Stock
	m.products[product.ID] = product
	return nil
}

func (m *memCatalogRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

type memOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]domain.Order
	failCreate bool
	failUpdate bool
}

func newMemOrderRepo(orders ...domain.Order) *memOrderRepo {
	m := &memOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func copyOrder(o domain.Order) domain.Order {
	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	o.Client = nil
	return o
}

func (m *memOrderRepo) Create(_ context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return fmt.Errorf("create order: connection lost")
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	order = copyOrder(order)
	return &order, nil
}

func (m *memOrderRepo) ListBySeller(_ context.Context, sellerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.SellerID == sellerID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListBySellerAndStatus(_ context.Context, sellerID string, status domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status == status {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *memOrderRepo) Update(_ context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return fmt.Errorf("update order: connection lost")
	}
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrNotFound)
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memOrderRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrderRepo) TopClients(_ context.Context, limit int) ([]domain.ClientRevenue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]decimal.Decimal)
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusCompleted {
			totals[o.ClientID] = totals[o.ClientID].Add(o.Total)
		}
	}
	var out []domain.ClientRevenue
	for clientID, total := range totals {
		if len(out) == limit {
			break
		}
		out = append(out, domain.ClientRevenue{Client: domain.Client{ID: clientID}, Total: total})
	}
	return out, nil
}

func (m *memOrderRepo) TopSellers(_ context.Context, limit int) ([]domain.SellerRevenue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]decimal.Decimal)
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusCompleted {
			totals[o.SellerID] = totals[o.SellerID].Add(o.Total)
		}
	}
	var out []domain.SellerRevenue
	for sellerID, total := range totals {
		if len(out) == limit {
			break
		}
		out = append(out, domain.SellerRevenue{Seller: domain.Seller{ID: sellerID}, Total: total})
	}
	return out, nil
}

type memSellerRepo struct {
	mu      sync.Mutex
	sellers map[string]domain.Seller
}

func newMemSellerRepo() *memSellerRepo {
	return &memSellerRepo{sellers: make(map[string]domain.Seller)}
}

func (m *memSellerRepo) Create(_ context.Context, seller domain.Seller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sellers[seller.ID] = seller
	return nil
}

func (m *memSellerRepo) FindByID(_ context.Context, id string) (*domain.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seller, ok := m.sellers[id]
	if !ok {
		return nil, fmt.Errorf("seller %s: %w", id, domain.ErrNotFound)
	}
	return &seller, nil
}

func (m *memSellerRepo) FindByEmail(_ context.Context, email string) (*domain.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sellers {
		if s.Email == email {
			seller := s
			return &seller, nil
		}
	}
	return nil, fmt.Errorf("seller %s: %w", email, domain.ErrNotFound)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []port.OrderEvent
}

func (p *capturePublisher) Publish(_ context.Context, event port.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) captured() []port.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]port.OrderEvent, len(p.events))
	copy(out, p.events)
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
