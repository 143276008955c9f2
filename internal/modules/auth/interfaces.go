package auth

import (
	"context"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/jwt"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetCredentials(ctx context.Context, email string) (*domain.User, string, error)
	Delete(ctx context.Context, id string) error
}

type DonorRepository interface {
	Create(ctx context.Context, d *domain.Donor) error
	GetByID(ctx context.Context, id string) (*domain.Donor, error)
}

type HospitalRepository interface {
	Create(ctx context.Context, h *domain.Hospital) error
	GetByID(ctx context.Context, id string) (*domain.Hospital, error)
}

// InventoryInitializer creates the empty stock rows of a new hospital.
type InventoryInitializer interface {
	Initialize(ctx context.Context, hospitalID, actor string) ([]domain.InventoryItem, error)
}

type TokenIssuer interface {
	GenerateToken(userID, role string) (string, *jwt.Claims, error)
}

// TokenRevoker records logged-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}
