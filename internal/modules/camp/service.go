package camp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/degrade"

	"go.uber.org/zap"
)

type Service struct {
	camps     CampRepository
	hospitals HospitalReader
	donors    DonorFinder
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(camps CampRepository, hospitals HospitalReader, donors DonorFinder, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		camps:     camps,
		hospitals: hospitals,
		donors:    donors,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create schedules a camp for hospitalID and invites available donors in
// the camp's city.
func (s *Service) Create(ctx context.Context, hospitalID string, req CreateCampRequest) (*domain.BloodCamp, error) {
	if req.SlotsAvailable <= 0 {
		return nil, domain.Validationf("slots_available must be greater than zero")
	}
	if _, err := time.Parse(domain.CampDateLayout, req.Date); err != nil {
		return nil, domain.Validationf("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(domain.CampTimeLayout, req.Time); err != nil {
		return nil, domain.Validationf("time must be HH:MM")
	}

	hospital, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	c := &domain.BloodCamp{
		HospitalID:     hospital.ID,
		HospitalName:   hospital.Name,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Date:           req.Date,
		Time:           req.Time,
		Location:       domain.Location(req.Location),
		SlotsAvailable: req.SlotsAvailable,
		Status:         domain.CampUpcoming,
	}
	if err := s.camps.Create(ctx, c); err != nil {
		return nil, err
	}

	s.invite(ctx, c)
	return c, nil
}

func (s *Service) invite(ctx context.Context, c *domain.BloodCamp) {
	available := true
	donors, err := s.donors.Find(ctx, domain.DonorFilter{City: c.Location.City, Available: &available})
	if err != nil {
		s.logger.Warn("camp invitations skipped", zap.String("camp_id", c.ID), zap.Error(err))
		return
	}
	if len(donors) == 0 {
		return
	}
	drafts := make([]domain.NotificationDraft, 0, len(donors))
	for _, d := range donors {
		drafts = append(drafts, domain.NotificationDraft{
			UserID:    d.ID,
			Title:     "New blood donation camp: " + c.Title,
			Message:   fmt.Sprintf("%s is hosting a camp on %s at %s in %s.", c.HospitalName, c.Date, c.Time, c.Location.City),
			Type:      domain.NotificationCampReminder,
			Priority:  domain.PriorityMedium,
			ActionURL: "/camps/" + c.ID,
		})
	}
	s.notifier.Notify(ctx, drafts...)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.BloodCamp, error) {
	return s.camps.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.CampFilter) ([]domain.BloodCamp, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Validationf("unknown camp status %q", f.Status)
	}
	items, err := s.camps.List(ctx, f)
	return degrade.List(s.logger, "camps.list", items, err)
}

func (s *Service) ListForDonor(ctx context.Context, donorID string) ([]domain.BloodCamp, error) {
	items, err := s.camps.ListForDonor(ctx, donorID)
	return degrade.List(s.logger, "camps.list_for_donor", items, err)
}

// Register books a slot for donorID. Only upcoming and ongoing camps take
// registrations.
func (s *Service) Register(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error) {
	c, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !c.Status.Open() {
		return nil, domain.Validationf("camp %s is %s", c.ID, c.Status)
	}
	return s.camps.Register(ctx, campID, donorID)
}

// Unregister frees the donor's slot while the camp is still open.
func (s *Service) Unregister(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error) {
	c, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !c.Status.Open() {
		return nil, domain.Validationf("camp %s is %s", c.ID, c.Status)
	}
	return s.camps.Unregister(ctx, campID, donorID)
}

// UpdateStatus lets the organising hospital (or an admin) move the camp
// through its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, actorID string, role domain.Role, campID string, status domain.CampStatus) (*domain.BloodCamp, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown camp status %q", status)
	}
	c, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && c.HospitalID != actorID {
		return nil, fmt.Errorf("%w: camp %s belongs to another hospital", domain.ErrForbidden, c.ID)
	}
	return s.camps.UpdateStatus(ctx, campID, status)
}
