package donor

import (
	"context"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/repository"
)

type DonorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Donor, error)
	Search(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error)
	Update(ctx context.Context, id string, p repository.DonorPatch) (*domain.Donor, error)
}

type DonationRepository interface {
	Create(ctx context.Context, d *domain.DonationRecord) error
	ListByDonor(ctx context.Context, donorID string) ([]domain.DonationRecord, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Sender interface {
	Send(ctx context.Context, d domain.NotificationDraft) (*domain.Notification, error)
}
