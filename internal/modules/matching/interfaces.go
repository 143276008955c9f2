package matching

import (
	"context"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/repository"
)

type RequestStore interface {
	GetByID(ctx context.Context, id string) (*domain.DonationRequest, error)
	Update(ctx context.Context, id string, p repository.RequestPatch) (*domain.DonationRequest, error)
}

type DonorFinder interface {
	Find(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error)
}

type Notifier interface {
	Notify(ctx context.Context, drafts ...domain.NotificationDraft)
}
