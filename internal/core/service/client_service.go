package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/port"
)

// ClientService manages the clients of a seller. Every read or write is
// gated by the ownership guard, so a seller can never see or touch another
// seller's clients.
type ClientService struct {
	guard   OwnershipGuard
	clients port.ClientRepository
}

func NewClientService(clients port.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func (s *ClientService) CreateClient(ctx context.Context, sellerID, name, email, company string) (*domain.Client, error) {
	if sellerID == "" {
		return nil, domain.ErrForbidden
	}
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: client name and email are required", domain.ErrInvalidInput)
	}

	if _, err := s.clients.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: client %s already registered", domain.ErrConflict, email)
	}

	now := time.Now()
	client := domain.Client{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Company:       company,
		OwnerSellerID: sellerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("persist client: %w", err)
	}
	return &client, nil
}

func (s *ClientService) GetClient(ctx context.Context, sellerID, id string) (*domain.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", id, err)
	}
	if err := s.guard.Authorize(sellerID, client.OwnerSellerID); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) ListClients(ctx context.Context, sellerID string) ([]domain.Client, error) {
	if sellerID == "" {
		return nil, domain.ErrForbidden
	}
	return s.clients.ListBySeller(ctx, sellerID)
}

func (s *ClientService) UpdateClient(ctx context.Context, sellerID, id, name, email, company string) (*domain.Client, error) {
	client, err := s.GetClient(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		client.Name = name
	}
	if email != "" {
		client.Email = email
	}
	if company != "" {
		client.Company = company
	}
	client.UpdatedAt = time.Now()
	if err := s.clients.Update(ctx, *client); err != nil {
		return nil, fmt.Errorf("persist client: %w", err)
	}
	return client, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, sellerID, id string) error {
	if _, err := s.GetClient(ctx, sellerID, id); err != nil {
		return err
	}
	return s.clients.Delete(ctx, id)
}
