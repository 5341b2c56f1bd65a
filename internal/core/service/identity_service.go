package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/port"
)

// IdentityService registers sellers and turns credentials into bearer
// tokens. The rest of the system only ever sees the seller id a token
// resolves to.
type IdentityService struct {
	sellers  port.SellerRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewIdentityService(sellers port.SellerRepository, secret []byte, tokenTTL time.Duration) *IdentityService {
	return &IdentityService{sellers: sellers, secret: secret, tokenTTL: tokenTTL}
}

func (s *IdentityService) Signup(ctx context.Context, name, email, password string) (*domain.Seller, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}

	if _, err := s.sellers.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: seller %s already registered", domain.ErrConflict, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	seller := domain.Seller{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.sellers.Create(ctx, seller); err != nil {
		return nil, fmt.Errorf("persist seller: %w", err)
	}

	seller.PasswordHash = ""
	return &seller, nil
}

func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (string, error) {
	seller, err := s.sellers.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("seller %s: %w", email, domain.ErrNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: wrong password", domain.ErrUnauthenticated)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   seller.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken resolves a bearer token to the seller id it was issued for.
func (s *IdentityService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.Subject, nil
}

func (s *IdentityService) GetSeller(ctx context.Context, id string) (*domain.Seller, error) {
	seller, err := s.sellers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("seller %s: %w", id, err)
	}
	seller.PasswordHash = ""
	return seller, nil
}
