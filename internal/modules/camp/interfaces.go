package camp

import (
	"context"

	"bloodconnect/internal/domain"
)

type CampRepository interface {
	Create(ctx context.Context, c *domain.BloodCamp) error
	GetByID(ctx context.Context, id string) (*domain.BloodCamp, error)
	List(ctx context.Context, f domain.CampFilter) ([]domain.BloodCamp, error)
	ListForDonor(ctx context.Context, donorID string) ([]domain.BloodCamp, error)
	UpdateStatus(ctx context.Context, id string, status domain.CampStatus) (*domain.BloodCamp, error)
	Register(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error)
	Unregister(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error)
}

type HospitalReader interface {
	GetByID(ctx context.Context, id string) (*domain.Hospital, error)
}

type DonorFinder interface {
	Find(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error)
}

type Notifier interface {
	Notify(ctx context.Context, drafts ...domain.NotificationDraft)
}
