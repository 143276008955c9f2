package request

import (
	"context"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/repository"
)

type RequestRepository interface {
	Create(ctx context.Context, r *domain.DonationRequest) error
	GetByID(ctx context.Context, id string) (*domain.DonationRequest, error)
	List(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error)
	Update(ctx context.Context, id string, p repository.RequestPatch) (*domain.DonationRequest, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// DonorFinder is the donor directory as seen by this module.
type DonorFinder interface {
	Find(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error)
}

type Notifier interface {
	Notify(ctx context.Context, drafts ...domain.NotificationDraft)
}
