package request

import (
	"context"
	"fmt"
	"strings"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/degrade"
	"bloodconnect/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type Service struct {
	requests RequestRepository
	users    UserReader
	donors   DonorFinder
	notifier Notifier
	logger   *zap.Logger
}

func NewService(requests RequestRepository, users UserReader, donors DonorFinder, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		requests: requests,
		users:    users,
		donors:   donors,
		notifier: notifier,
		logger:   logger,
	}
}

// Create opens a pending request for recipientID and alerts available donors
// of the same group in the same city.
func (s *Service) Create(ctx context.Context, recipientID string, req CreateRequest) (*domain.DonationRequest, error) {
	if req.UnitsNeeded <= 0 {
		return nil, domain.Validationf("units_needed must be greater than zero")
	}
	if !req.BloodGroup.Valid() {
		return nil, domain.Validationf("unknown blood group %q", req.BloodGroup)
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, domain.Validationf("unknown urgency %q", urgency)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	r := &domain.DonationRequest{
		RecipientID:   recipient.ID,
		RecipientName: recipient.Name,
		BloodGroup:    req.BloodGroup,
		UnitsNeeded:   req.UnitsNeeded,
		Location:      domain.Location(req.Location),
		Urgency:       urgency,
		Status:        domain.RequestPending,
		HospitalID:    req.HospitalID,
		Notes:         strings.TrimSpace(req.Notes),
		ScheduledDate: req.ScheduledDate,
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}

	s.alertDonors(ctx, r)
	return r, nil
}

func (s *Service) alertDonors(ctx context.Context, r *domain.DonationRequest) {
	available := true
	donors, err := s.donors.Find(ctx, domain.DonorFilter{
		BloodGroup: r.BloodGroup,
		City:       r.Location.City,
		Available:  &available,
	})
	if err != nil {
		s.logger.Warn("donor alert skipped", zap.String("request_id", r.ID), zap.Error(err))
		return
	}

	drafts := make([]domain.NotificationDraft, 0, len(donors))
	for _, d := range donors {
		if d.ID == r.RecipientID {
			continue
		}
		drafts = append(drafts, domain.NotificationDraft{
			UserID:    d.ID,
			Title:     fmt.Sprintf("Urgent: %s blood needed", r.BloodGroup),
			Message:   fmt.Sprintf("%s needs %d unit(s) of %s blood in %s.", r.RecipientName, r.UnitsNeeded, r.BloodGroup, r.Location.City),
			Type:      domain.NotificationDonationRequest,
			Priority:  domain.PriorityHigh,
			ActionURL: "/requests/" + r.ID,
		})
	}
	if len(drafts) > 0 {
		s.notifier.Notify(ctx, drafts...)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.DonationRequest, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultListLimit
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}
	items, err := s.requests.List(ctx, f)
	return degrade.List(s.logger, "requests.list", items, err)
}

// FilterFromQuery converts query parameters into a filter. Mine restricts
// the listing to actorID's own requests.
func FilterFromQuery(q ListQuery, actorID string) (domain.RequestFilter, error) {
	f := domain.RequestFilter{
		Status:     domain.RequestStatus(q.Status),
		City:       strings.TrimSpace(q.City),
		Urgency:    domain.Urgency(q.Urgency),
		HospitalID: q.HospitalID,
		Limit:      q.Limit,
	}
	if q.Mine {
		f.RecipientID = actorID
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, domain.Validationf("unknown status %q", q.Status)
	}
	if f.Urgency != "" && !f.Urgency.Valid() {
		return f, domain.Validationf("unknown urgency %q", q.Urgency)
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

// Update merges the given fields. It does not enforce the status machine.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.DonationRequest, error) {
	if req.UnitsNeeded != nil && *req.UnitsNeeded <= 0 {
		return nil, domain.Validationf("units_needed must be greater than zero")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, domain.Validationf("unknown status %q", *req.Status)
	}
	patch := withStatus(repository.RequestPatch{
		UnitsNeeded:   req.UnitsNeeded,
		Urgency:       req.Urgency,
		HospitalID:    req.HospitalID,
		Notes:         req.Notes,
		ScheduledDate: req.ScheduledDate,
	}, req.Status)
	if req.Location != nil {
		loc := domain.Location(*req.Location)
		patch.Location = &loc
	}
	return s.requests.Update(ctx, id, patch)
}

// Transition moves the request to status to if the lifecycle allows it.
func (s *Service) Transition(ctx context.Context, id string, to domain.RequestStatus) (*domain.DonationRequest, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%w: cannot move request from %s to %s", ErrInvalidTransition, r.Status, to)
	}
	return s.requests.Update(ctx, id, withStatus(repository.RequestPatch{}, &to))
}

// withStatus sets the patch status and clears matched donors when the new
// status cannot carry them.
func withStatus(p repository.RequestPatch, to *domain.RequestStatus) repository.RequestPatch {
	p.Status = to
	if to != nil && *to != domain.RequestMatched && *to != domain.RequestCompleted {
		p.MatchedDonors = []string{}
	}
	return p
}

// Authorize reports whether actor may modify r: the recipient who opened it,
// the hospital it is assigned to, or an admin.
func Authorize(r *domain.DonationRequest, actorID string, role domain.Role) error {
	switch {
	case role == domain.RoleAdmin:
		return nil
	case r.RecipientID == actorID:
		return nil
	case role == domain.RoleHospital && r.HospitalID == actorID:
		return nil
	}
	return fmt.Errorf("%w: request %s belongs to another user", domain.ErrForbidden, r.ID)
}
