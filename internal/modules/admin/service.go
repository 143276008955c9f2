package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/modules/notification"
	"bloodconnect/internal/pkg/degrade"
	"bloodconnect/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const topCitiesLimit = 5

type Service struct {
	users     UserRepository
	hospitals HospitalRepository
	sources   Sources
	notifier  Sender
	logger    *zap.Logger
}

func NewService(users UserRepository, hospitals HospitalRepository, sources Sources, notifier Sender, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		hospitals: hospitals,
		sources:   sources,
		notifier:  notifier,
		logger:    logger,
	}
}

// -------------------- Users --------------------

func (s *Service) ListUsers(ctx context.Context, q UserListQuery) ([]domain.User, error) {
	f := repository.UserFilter{
		Role:   domain.Role(q.Role),
		Status: domain.UserStatus(q.Status),
		Limit:  q.Limit,
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, domain.Validationf("unknown role %q", q.Role)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Validationf("unknown status %q", q.Status)
	}
	users, err := s.users.List(ctx, f)
	return degrade.List(s.logger, "admin.users", users, err)
}

func (s *Service) SetUserStatus(ctx context.Context, adminID, userID string, status domain.UserStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown status %q", status)
	}
	if adminID == userID && status == domain.UserSuspended {
		return nil, domain.Validationf("admins cannot suspend themselves")
	}
	u, err := s.users.Update(ctx, userID, repository.UserPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user status changed",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.String("status", string(status)),
	)
	return u, nil
}

func (s *Service) VerifyUser(ctx context.Context, userID string) (*domain.User, error) {
	verified := true
	return s.users.Update(ctx, userID, repository.UserPatch{Verified: &verified})
}

// NotifyUser sends an admin notification to an existing user.
func (s *Service) NotifyUser(ctx context.Context, userID string, req notification.SendRequest) (*domain.Notification, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.notifier.Send(ctx, req.Draft(userID))
}

// -------------------- Hospitals --------------------

func (s *Service) ListHospitals(ctx context.Context, status domain.VerificationStatus) ([]domain.Hospital, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Validationf("unknown verification status %q", status)
	}
	items, err := s.hospitals.List(ctx, status)
	return degrade.List(s.logger, "admin.hospitals", items, err)
}

// SetHospitalVerification records the review outcome and tells the
// hospital about it. The notification is best-effort.
func (s *Service) SetHospitalVerification(ctx context.Context, hospitalID string, status domain.VerificationStatus) (*domain.Hospital, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown verification status %q", status)
	}
	h, err := s.hospitals.SetVerification(ctx, hospitalID, status)
	if err != nil {
		return nil, err
	}

	if status != domain.VerificationPending {
		_, err := s.notifier.Send(ctx, domain.NotificationDraft{
			UserID:   hospitalID,
			Title:    "Verification " + string(status),
			Message:  fmt.Sprintf("Your hospital account has been %s by an administrator.", status),
			Type:     domain.NotificationAdmin,
			Priority: domain.PriorityHigh,
		})
		if err != nil {
			s.logger.Warn("notification not delivered", zap.String("user_id", hospitalID), zap.Error(err))
		}
	}
	return h, nil
}

// -------------------- Analytics --------------------

// Analytics loads every source concurrently and aggregates in memory. An
// unavailable source contributes zeros.
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	var (
		donors    []domain.Donor
		requests  []domain.DonationRequest
		camps     []domain.BloodCamp
		donations []domain.DonationRecord
		hospitals []domain.Hospital
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		donors, err = s.sources.Donors.Search(gctx, domain.DonorFilter{})
		donors, err = degrade.List(s.logger, "analytics.donors", donors, err)
		return err
	})
	g.Go(func() (err error) {
		requests, err = s.sources.Requests.List(gctx, domain.RequestFilter{})
		requests, err = degrade.List(s.logger, "analytics.requests", requests, err)
		return err
	})
	g.Go(func() (err error) {
		camps, err = s.sources.Camps.List(gctx, domain.CampFilter{})
		camps, err = degrade.List(s.logger, "analytics.camps", camps, err)
		return err
	})
	g.Go(func() (err error) {
		donations, err = s.sources.Donations.ListAll(gctx)
		donations, err = degrade.List(s.logger, "analytics.donations", donations, err)
		return err
	})
	g.Go(func() (err error) {
		hospitals, err = s.hospitals.List(gctx, "")
		hospitals, err = degrade.List(s.logger, "analytics.hospitals", hospitals, err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(donors, requests, camps, donations, hospitals), nil
}

func aggregate(donors []domain.Donor, requests []domain.DonationRequest, camps []domain.BloodCamp, donations []domain.DonationRecord, hospitals []domain.Hospital) *Analytics {
	a := &Analytics{
		TotalDonors:       len(donors),
		BloodGroups:       make(map[domain.BloodGroup]int, 8),
		RequestsByStatus:  make(map[domain.RequestStatus]int, 4),
		CampsByStatus:     make(map[domain.CampStatus]int, 4),
		TotalDonations:    len(donations),
		HospitalsByStatus: make(map[domain.VerificationStatus]int, 3),
	}
	for _, g := range domain.AllBloodGroups() {
		a.BloodGroups[g] = 0
	}

	cities := map[string]*CityCount{}
	for _, d := range donors {
		a.BloodGroups[d.BloodGroup]++
		if d.Available {
			a.AvailableDonors++
		}
		name := strings.TrimSpace(d.Location.City)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if cities[key] == nil {
			cities[key] = &CityCount{City: name}
		}
		cities[key].Donors++
	}
	for _, r := range requests {
		a.RequestsByStatus[r.Status]++
	}
	for _, c := range camps {
		a.CampsByStatus[c.Status]++
	}
	for _, d := range donations {
		a.UnitsCollected += d.Units
	}
	for _, h := range hospitals {
		a.HospitalsByStatus[h.VerificationStatus]++
	}

	a.TopCities = make([]CityCount, 0, len(cities))
	for _, c := range cities {
		a.TopCities = append(a.TopCities, *c)
	}
	sort.Slice(a.TopCities, func(i, j int) bool {
		if a.TopCities[i].Donors != a.TopCities[j].Donors {
			return a.TopCities[i].Donors > a.TopCities[j].Donors
		}
		return a.TopCities[i].City < a.TopCities[j].City
	})
	if len(a.TopCities) > topCitiesLimit {
		a.TopCities = a.TopCities[:topCitiesLimit]
	}
	return a
}
