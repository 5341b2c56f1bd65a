package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/core/service"
)

// HTTPHandler exposes the service over JSON/HTTP. Each operation has its own
// explicit request type; payloads are validated here before they reach the
// reconciler.
type HTTPHandler struct {
	identity   *service.IdentityService
	catalog    *service.CatalogService
	clients    *service.ClientService
	reconciler *service.Reconciler
	reports    *service.ReportService
	logger     zerolog.Logger
}

func NewHTTPHandler(
	identity *service.IdentityService,
	catalog *service.CatalogService,
	clients *service.ClientService,
	reconciler *service.Reconciler,
	reports *service.ReportService,
	logger zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		identity:   identity,
		catalog:    catalog,
		clients:    clients,
		reconciler: reconciler,
		reports:    reports,
		logger:     logger,
	}
}

// Register wires all routes onto mux. Everything except signup, login and
// health requires a bearer token.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	auth := Authenticate(h.identity, h.logger)
	protect := func(fn http.HandlerFunc) http.Handler { return auth(fn) }

	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/signup", h.Signup)
	mux.HandleFunc("POST /api/login", h.Login)

	mux.Handle("GET /api/me", protect(h.Me))

	mux.Handle("POST /api/products", protect(h.CreateProduct))
	mux.Handle("GET /api/products", protect(h.ListProducts))
	mux.Handle("GET /api/products/search", protect(h.SearchProducts))
	mux.Handle("GET /api/products/{id}", protect(h.GetProduct))
	mux.Handle("PUT /api/products/{id}", protect(h.UpdateProduct))
	mux.Handle("DELETE /api/products/{id}", protect(h.DeleteProduct))

	mux.Handle("POST /api/clients", protect(h.CreateClient))
	mux.Handle("GET /api/clients", protect(h.ListClients))
	mux.Handle("GET /api/clients/{id}", protect(h.GetClient))
	mux.Handle("PUT /api/clients/{id}", protect(h.UpdateClient))
	mux.Handle("DELETE /api/clients/{id}", protect(h.DeleteClient))

	mux.Handle("POST /api/orders", protect(h.CreateOrder))
	mux.Handle("GET /api/orders", protect(h.ListOrders))
	mux.Handle("GET /api/orders/{id}", protect(h.GetOrder))
	mux.Handle("PUT /api/orders/{id}", protect(h.UpdateOrder))
	mux.Handle("DELETE /api/orders/{id}", protect(h.DeleteOrder))

	mux.Handle("GET /api/reports/top-clients", protect(h.TopClients))
	mux.Handle("GET /api/reports/top-sellers", protect(h.TopSellers))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}
	seller, err := h.identity.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sellerDTO(seller))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	seller, err := h.identity.GetSeller(r.Context(), SellerFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sellerDTO(seller))
}

type productRequest struct {
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), req.Name, req.Stock, req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productDTO(product))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productDTO(product))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productListDTO(products))
}

func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productListDTO(products))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), req.Name, req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productDTO(product))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

func (h *HTTPHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.clients.CreateClient(r.Context(), SellerFromContext(r.Context()), req.Name, req.Email, req.Company)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, clientDTO(client))
}

func (h *HTTPHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.GetClient(r.Context(), SellerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clientDTO(client))
}

func (h *HTTPHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context(), SellerFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]interface{}, 0, len(clients))
	for i := range clients {
		out = append(out, clientDTO(&clients[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.clients.UpdateClient(r.Context(), SellerFromContext(r.Context()), r.PathValue("id"), req.Name, req.Email, req.Company)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clientDTO(client))
}

func (h *HTTPHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.DeleteClient(r.Context(), SellerFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lineItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	ClientID string            `json:"client_id"`
	Items    []lineItemPayload `json:"items"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.reconciler.CreateOrder(r.Context(), service.CreateOrderRequest{
		SellerID: SellerFromContext(r.Context()),
		ClientID: req.ClientID,
		Items:    toLineItems(req.Items),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderDTO(order))
}

type updateOrderRequest struct {
	ClientID string            `json:"client_id,omitempty"`
	Items    []lineItemPayload `json:"items,omitempty"`
	Status   string            `json:"status,omitempty"`
}

func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.reconciler.UpdateOrder(r.Context(), service.UpdateOrderRequest{
		OrderID:     r.PathValue("id"),
		SellerID:    SellerFromContext(r.Context()),
		NewClientID: req.ClientID,
		NewItems:    toLineItems(req.Items),
		NewStatus:   domain.OrderStatus(req.Status),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDTO(order))
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.DeleteOrder(r.Context(), r.PathValue("id"), SellerFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.reports.GetOrder(r.Context(), SellerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDTO(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.reports.ListOrders(r.Context(), SellerFromContext(r.Context()), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]interface{}, 0, len(orders))
	for i := range orders {
		out = append(out, orderDTO(&orders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) TopClients(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.TopClients(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]interface{}, 0, len(rows))
	for i := range rows {
		out = append(out, map[string]interface{}{
			"client": clientDTO(&rows[i].Client),
			"total":  rows[i].Total,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) TopSellers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.TopSellers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]interface{}, 0, len(rows))
	for i := range rows {
		out = append(out, map[string]interface{}{
			"seller": sellerDTO(&rows[i].Seller),
			"total":  rows[i].Total,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// fail maps a domain error onto an HTTP status. Insufficient stock carries
// the conflicting product and shortfall so the caller can react.
func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      "insufficient stock",
			"product_id": stockErr.ProductID,
			"shortfall":  stockErr.Shortfall,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toLineItems(payload []lineItemPayload) []domain.LineItem {
	if payload == nil {
		return nil
	}
	items := make([]domain.LineItem, 0, len(payload))
	for _, it := range payload {
		items = append(items, domain.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items
}

func sellerDTO(s *domain.Seller) map[string]interface{} {
	return map[string]interface{}{
		"id":    s.ID,
		"name":  s.Name,
		"email": s.Email,
	}
}

func productDTO(p *domain.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":    p.ID,
		"name":  p.Name,
		"stock": p.Stock,
		"price": p.Price,
	}
}

func productListDTO(products []domain.Product) []interface{} {
	out := make([]interface{}, 0, len(products))
	for i := range products {
		out = append(out, productDTO(&products[i]))
	}
	return out
}

func clientDTO(c *domain.Client) map[string]interface{} {
	return map[string]interface{}{
		"id":      c.ID,
		"name":    c.Name,
		"email":   c.Email,
		"company": c.Company,
		"seller":  c.OwnerSellerID,
	}
}

type orderResponse struct {
	ID        string                 `json:"id"`
	SellerID  string                 `json:"seller_id"`
	ClientID  string                 `json:"client_id"`
	Items     []lineItemPayload      `json:"items"`
	Status    string                 `json:"status"`
	Total     decimal.Decimal        `json:"total"`
	Client    map[string]interface{} `json:"client,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func orderDTO(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		SellerID:  o.SellerID,
		ClientID:  o.ClientID,
		Status:    string(o.Status),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, lineItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if o.Client != nil {
		resp.Client = clientDTO(o.Client)
	}
	return resp
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
