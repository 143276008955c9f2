package admin

import (
	"context"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/repository"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]domain.User, error)
	Update(ctx context.Context, id string, p repository.UserPatch) (*domain.User, error)
}

type HospitalRepository interface {
	List(ctx context.Context, status domain.VerificationStatus) ([]domain.Hospital, error)
	SetVerification(ctx context.Context, id string, status domain.VerificationStatus) (*domain.Hospital, error)
}

type DonorRepository interface {
	Search(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error)
}

type RequestRepository interface {
	List(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error)
}

type CampRepository interface {
	List(ctx context.Context, f domain.CampFilter) ([]domain.BloodCamp, error)
}

type DonationRepository interface {
	ListAll(ctx context.Context) ([]domain.DonationRecord, error)
}

type Sender interface {
	Send(ctx context.Context, d domain.NotificationDraft) (*domain.Notification, error)
}

// Sources groups the read-only collaborators used by analytics.
type Sources struct {
	Donors    DonorRepository
	Requests  RequestRepository
	Camps     CampRepository
	Donations DonationRepository
}
