package inventory

import (
	"context"

	"bloodconnect/internal/domain"
)

type InventoryRepository interface {
	List(ctx context.Context, hospitalID string) ([]domain.InventoryItem, error)
	Adjust(ctx context.Context, hospitalID string, group domain.BloodGroup, delta int, actor string) (*domain.InventoryItem, int, error)
	SetExpiring(ctx context.Context, hospitalID string, group domain.BloodGroup, units int, actor string) (*domain.InventoryItem, error)
	Initialize(ctx context.Context, hospitalID, actor string) ([]domain.InventoryItem, error)
	RecordMovement(ctx context.Context, mv *domain.InventoryMovement) error
	ListMovements(ctx context.Context, hospitalID string, limit int) ([]domain.InventoryMovement, error)
}

type HospitalReader interface {
	GetByID(ctx context.Context, id string) (*domain.Hospital, error)
}
