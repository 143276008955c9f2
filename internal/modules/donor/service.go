package donor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/degrade"
	"bloodconnect/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	donors    DonorRepository
	donations DonationRepository
	users     UserReader
	notifier  Sender
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(donors DonorRepository, donations DonationRepository, users UserReader, notifier Sender, logger *zap.Logger) *Service {
	return &Service{
		donors:    donors,
		donations: donations,
		users:     users,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Find runs the directory search and returns backend errors unchanged.
// Matching uses it so that a failing directory is never mistaken for "no
// donors".
func (s *Service) Find(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error) {
	if f.BloodGroup != "" && !f.BloodGroup.Valid() {
		return nil, domain.Validationf("unknown blood group %q", f.BloodGroup)
	}
	if f.MinDaysSinceLastDonation != nil && *f.MinDaysSinceLastDonation < 0 {
		return nil, domain.Validationf("min_days_since_last_donation must not be negative")
	}

	found, err := s.donors.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.MinDaysSinceLastDonation == nil {
		return found, nil
	}

	now := s.now()
	out := make([]domain.Donor, 0, len(found))
	for _, d := range found {
		days, ok := d.DaysSinceLastDonation(now)
		if !ok || days >= *f.MinDaysSinceLastDonation {
			out = append(out, d)
		}
	}
	return out, nil
}

// Search is Find for the public listing: an unavailable backend yields an
// empty page.
func (s *Service) Search(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error) {
	found, err := s.Find(ctx, f)
	return degrade.List(s.logger, "donors.search", found, err)
}

// FilterFromQuery converts query parameters into a filter.
func FilterFromQuery(q SearchQuery) (domain.DonorFilter, error) {
	f := domain.DonorFilter{
		City:                     strings.TrimSpace(q.City),
		Available:                q.Available,
		MinDaysSinceLastDonation: q.MinDaysSinceLastDonation,
	}
	if q.BloodGroup != "" {
		g, err := domain.ParseBloodGroup(q.BloodGroup)
		if err != nil {
			return f, err
		}
		f.BloodGroup = g
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Donor, error) {
	return s.donors.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, donorID string, req UpdateProfileRequest) (*domain.Donor, error) {
	patch := repository.DonorPatch{
		BloodGroup:        req.BloodGroup,
		Age:               req.Age,
		Gender:            req.Gender,
		MedicalConditions: req.MedicalConditions,
	}
	if req.Location != nil {
		loc := domain.Location(*req.Location)
		patch.Location = &loc
	}
	return s.donors.Update(ctx, donorID, patch)
}

func (s *Service) SetAvailability(ctx context.Context, donorID string, available bool) (*domain.Donor, error) {
	return s.donors.Update(ctx, donorID, repository.DonorPatch{Available: &available})
}

// RecordDonation stores a completed donation reported by hospitalID and
// moves the donor's last donation date forward.
func (s *Service) RecordDonation(ctx context.Context, hospitalID string, req RecordDonationRequest) (*domain.DonationRecord, error) {
	d, err := s.donors.GetByID(ctx, req.DonorID)
	if err != nil {
		return nil, err
	}

	donatedAt := s.now().UTC()
	if req.DonatedAt != nil {
		donatedAt = req.DonatedAt.UTC()
	}
	if donatedAt.After(s.now().Add(time.Minute)) {
		return nil, domain.Validationf("donated_at is in the future")
	}

	rec := &domain.DonationRecord{
		DonorID:     d.ID,
		RecipientID: req.RecipientID,
		HospitalID:  hospitalID,
		CampID:      req.CampID,
		BloodGroup:  d.BloodGroup,
		Units:       req.Units,
		DonatedAt:   donatedAt,
		Notes:       req.Notes,
		Verified:    true,
	}
	if err := s.donations.Create(ctx, rec); err != nil {
		return nil, err
	}

	if d.LastDonationDate == nil || donatedAt.After(*d.LastDonationDate) {
		if _, err := s.donors.Update(ctx, d.ID, repository.DonorPatch{LastDonationDate: &donatedAt}); err != nil {
			return nil, fmt.Errorf("donation %s stored, last donation date not updated: %w", rec.ID, err)
		}
	}
	return rec, nil
}

func (s *Service) History(ctx context.Context, donorID string) ([]domain.DonationRecord, error) {
	items, err := s.donations.ListByDonor(ctx, donorID)
	return degrade.List(s.logger, "donors.history", items, err)
}

// Contact delivers a message from senderID to the donor as a notification.
func (s *Service) Contact(ctx context.Context, senderID, donorID, message string) (*domain.Notification, error) {
	if _, err := s.donors.GetByID(ctx, donorID); err != nil {
		return nil, err
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	return s.notifier.Send(ctx, domain.NotificationDraft{
		UserID:   donorID,
		Title:    fmt.Sprintf("%s wants to contact you", sender.Name),
		Message:  strings.TrimSpace(message),
		Type:     domain.NotificationDonationRequest,
		Priority: domain.PriorityMedium,
	})
}
