// Package matching pairs open blood requests with available donors.
package matching

import (
	"context"
	"fmt"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/repository"

	"go.uber.org/zap"
)

type Mode string

const (
	// ModeExact matches donors whose group equals the requested group.
	ModeExact Mode = "exact"
	// ModeCompatible matches every group that can donate to the requested one.
	ModeCompatible Mode = "compatible"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeCompatible:
		return ModeCompatible, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

type Result struct {
	Request  *domain.DonationRequest `json:"request"`
	DonorIDs []string                `json:"donor_ids"`
	Mode     Mode                    `json:"mode"`
}

type Service struct {
	requests RequestStore
	donors   DonorFinder
	notifier Notifier
	mode     Mode
	logger   *zap.Logger
}

func NewService(requests RequestStore, donors DonorFinder, notifier Notifier, mode Mode, logger *zap.Logger) *Service {
	if mode == "" {
		mode = ModeExact
	}
	return &Service{
		requests: requests,
		donors:   donors,
		notifier: notifier,
		mode:     mode,
		logger:   logger,
	}
}

func (s *Service) Mode() Mode { return s.mode }

// MatchDonors looks up available donors for the request. When any are found
// the request becomes matched and its donor list is replaced. With no
// donors the request is returned unchanged.
func (s *Service) MatchDonors(ctx context.Context, requestID string) (*Result, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.match(ctx, req)
}

// MatchAs is MatchDonors on behalf of a caller. Recipients may only match
// their own requests.
func (s *Service) MatchAs(ctx context.Context, requestID, actorID string, role domain.Role) (*Result, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleRecipient && req.RecipientID != actorID {
		return nil, fmt.Errorf("%w: request %s belongs to another recipient", domain.ErrForbidden, req.ID)
	}
	return s.match(ctx, req)
}

func (s *Service) match(ctx context.Context, req *domain.DonationRequest) (*Result, error) {
	if req.Status.Terminal() {
		return nil, domain.Validationf("request %s is %s and cannot be matched", req.ID, req.Status)
	}

	available := true
	filter := domain.DonorFilter{Available: &available}
	if s.mode == ModeCompatible {
		filter.BloodGroups = domain.CompatibleDonors(req.BloodGroup)
	} else {
		filter.BloodGroup = req.BloodGroup
	}

	donors, err := s.donors.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("match request %s: %w", req.ID, err)
	}

	ids := make([]string, 0, len(donors))
	for _, d := range donors {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		s.logger.Info("no donors matched", zap.String("request_id", req.ID), zap.String("blood_group", string(req.BloodGroup)))
		return &Result{Request: req, DonorIDs: ids, Mode: s.mode}, nil
	}

	matched := domain.RequestMatched
	updated, err := s.requests.Update(ctx, req.ID, repository.RequestPatch{
		Status:        &matched,
		MatchedDonors: ids,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated)
	return &Result{Request: updated, DonorIDs: ids, Mode: s.mode}, nil
}

func (s *Service) notify(ctx context.Context, r *domain.DonationRequest) {
	drafts := make([]domain.NotificationDraft, 0, len(r.MatchedDonors)+1)
	drafts = append(drafts, domain.NotificationDraft{
		UserID:    r.RecipientID,
		Title:     "Donors found",
		Message:   fmt.Sprintf("%d donor(s) matched your %s request.", len(r.MatchedDonors), r.BloodGroup),
		Type:      domain.NotificationDonorMatch,
		Priority:  domain.PriorityHigh,
		ActionURL: "/requests/" + r.ID,
	})
	for _, id := range r.MatchedDonors {
		drafts = append(drafts, domain.NotificationDraft{
			UserID:    id,
			Title:     fmt.Sprintf("You are a match for a %s request", r.BloodGroup),
			Message:   fmt.Sprintf("%s needs %d unit(s) in %s.", r.RecipientName, r.UnitsNeeded, r.Location.City),
			Type:      domain.NotificationDonationRequest,
			Priority:  domain.PriorityForUrgency(r.Urgency),
			ActionURL: "/requests/" + r.ID,
		})
	}
	s.notifier.Notify(ctx, drafts...)
}
