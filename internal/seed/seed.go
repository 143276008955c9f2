// Package seed loads demo fixtures into the repositories.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/modules/auth"
	"bloodconnect/internal/repository"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoFixture []byte

type Location struct {
	Address   string  `yaml:"address"`
	City      string  `yaml:"city"`
	State     string  `yaml:"state"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type Account struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
}

type Hospital struct {
	Account       `yaml:",inline"`
	Key           string         `yaml:"key"`
	LicenseNumber string         `yaml:"license_number"`
	ContactPerson string         `yaml:"contact_person"`
	Verification  string         `yaml:"verification"`
	Location      Location       `yaml:"location"`
	Inventory     map[string]int `yaml:"inventory"`
	Expiring      map[string]int `yaml:"expiring"`
}

type Donor struct {
	Account             `yaml:",inline"`
	BloodGroup          string `yaml:"blood_group"`
	Age                 int    `yaml:"age"`
	Gender              string `yaml:"gender"`
	City                string `yaml:"city"`
	Available           bool   `yaml:"available"`
	LastDonationDaysAgo *int   `yaml:"last_donation_days_ago"`
}

type Request struct {
	Recipient  string `yaml:"recipient"`
	BloodGroup string `yaml:"blood_group"`
	Units      int    `yaml:"units"`
	Urgency    string `yaml:"urgency"`
	City       string `yaml:"city"`
	Hospital   string `yaml:"hospital"`
	Notes      string `yaml:"notes"`
}

type Camp struct {
	Hospital    string `yaml:"hospital"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DaysFromNow int    `yaml:"days_from_now"`
	Time        string `yaml:"time"`
	City        string `yaml:"city"`
	Address     string `yaml:"address"`
	Slots       int    `yaml:"slots"`
}

type Fixtures struct {
	Password   string     `yaml:"password"`
	Admin      Account    `yaml:"admin"`
	Hospitals  []Hospital `yaml:"hospitals"`
	Donors     []Donor    `yaml:"donors"`
	Recipients []Account  `yaml:"recipients"`
	Requests   []Request  `yaml:"requests"`
	Camps      []Camp     `yaml:"camps"`
}

// Demo returns the embedded demo fixtures.
func Demo() (*Fixtures, error) {
	return Parse(demoFixture)
}

func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("seed: parse fixtures: %w", err)
	}
	if fx.Admin.Email == "" {
		return nil, errors.New("seed: fixtures have no admin account")
	}
	for _, d := range fx.Donors {
		if !domain.BloodGroup(d.BloodGroup).Valid() {
			return nil, fmt.Errorf("seed: donor %s has unknown blood group %q", d.Email, d.BloodGroup)
		}
	}
	return &fx, nil
}

type Summary struct {
	Users     int
	Donors    int
	Hospitals int
	Requests  int
	Camps     int
	Skipped   bool
}

// Apply writes the fixtures. It is a no-op when the admin account already
// exists, so running it twice is safe.
func Apply(ctx context.Context, repos *repository.Repositories, fx *Fixtures, log *zap.Logger) (*Summary, error) {
	s := &seeder{repos: repos, fx: fx, now: time.Now().UTC(), users: map[string]string{}, hospitals: map[string]*domain.Hospital{}}

	if _, _, err := repos.Users.GetCredentials(ctx, fx.Admin.Email); err == nil {
		log.Info("seed skipped, admin already present", zap.String("email", fx.Admin.Email))
		return &Summary{Skipped: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	steps := []func(context.Context) error{
		s.admin,
		s.hospitalsStep,
		s.donors,
		s.recipients,
		s.requests,
		s.camps,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}

	log.Info("demo data seeded",
		zap.Int("users", s.summary.Users),
		zap.Int("donors", s.summary.Donors),
		zap.Int("hospitals", s.summary.Hospitals),
		zap.Int("requests", s.summary.Requests),
		zap.Int("camps", s.summary.Camps),
	)
	return &s.summary, nil
}

type seeder struct {
	repos     *repository.Repositories
	fx        *Fixtures
	now       time.Time
	users     map[string]string // email -> id
	hospitals map[string]*domain.Hospital
	summary   Summary
}

func (s *seeder) createUser(ctx context.Context, a Account, role domain.Role, verified bool) (*domain.User, error) {
	password := a.Password
	if password == "" {
		password = s.fx.Password
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: a.Email, Name: a.Name, Phone: a.Phone, Role: role, Verified: verified}
	if err := s.repos.Users.Create(ctx, u, hash); err != nil {
		return nil, fmt.Errorf("seed: user %s: %w", a.Email, err)
	}
	s.users[u.Email] = u.ID
	s.summary.Users++
	return u, nil
}

func (s *seeder) admin(ctx context.Context) error {
	_, err := s.createUser(ctx, s.fx.Admin, domain.RoleAdmin, true)
	return err
}

func (s *seeder) hospitalsStep(ctx context.Context) error {
	for _, fh := range s.fx.Hospitals {
		u, err := s.createUser(ctx, fh.Account, domain.RoleHospital, fh.Verification == string(domain.VerificationVerified))
		if err != nil {
			return err
		}
		h := &domain.Hospital{
			ID:                 u.ID,
			Name:               u.Name,
			Location:           domain.Location(fh.Location),
			ContactPerson:      fh.ContactPerson,
			LicenseNumber:      fh.LicenseNumber,
			VerificationStatus: domain.VerificationStatus(fh.Verification),
		}
		if err := s.repos.Hospitals.Create(ctx, h); err != nil {
			return fmt.Errorf("seed: hospital %s: %w", fh.Key, err)
		}
		s.hospitals[fh.Key] = h
		s.summary.Hospitals++

		if _, err := s.repos.Inventory.Initialize(ctx, h.ID, "seed"); err != nil {
			return fmt.Errorf("seed: inventory %s: %w", fh.Key, err)
		}
		for group, units := range fh.Inventory {
			if units == 0 {
				continue
			}
			if _, _, err := s.repos.Inventory.Adjust(ctx, h.ID, domain.BloodGroup(group), units, "seed"); err != nil {
				return fmt.Errorf("seed: inventory %s/%s: %w", fh.Key, group, err)
			}
		}
		for group, units := range fh.Expiring {
			if _, err := s.repos.Inventory.SetExpiring(ctx, h.ID, domain.BloodGroup(group), units, "seed"); err != nil {
				return fmt.Errorf("seed: expiring %s/%s: %w", fh.Key, group, err)
			}
		}
	}
	return nil
}

func (s *seeder) donors(ctx context.Context) error {
	for _, fd := range s.fx.Donors {
		u, err := s.createUser(ctx, fd.Account, domain.RoleDonor, true)
		if err != nil {
			return err
		}
		d := &domain.Donor{
			User:              *u,
			BloodGroup:        domain.BloodGroup(fd.BloodGroup),
			Age:               fd.Age,
			Gender:            domain.Gender(fd.Gender),
			Location:          domain.Location{City: fd.City},
			Available:         fd.Available,
			MedicalConditions: []string{},
		}
		if fd.LastDonationDaysAgo != nil {
			last := s.now.AddDate(0, 0, -*fd.LastDonationDaysAgo)
			d.LastDonationDate = &last
		}
		if err := s.repos.Donors.Create(ctx, d); err != nil {
			return fmt.Errorf("seed: donor %s: %w", fd.Email, err)
		}
		s.summary.Donors++
	}
	return nil
}

func (s *seeder) recipients(ctx context.Context) error {
	for _, a := range s.fx.Recipients {
		if _, err := s.createUser(ctx, a, domain.RoleRecipient, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) requests(ctx context.Context) error {
	for _, fr := range s.fx.Requests {
		recipientID, ok := s.users[fr.Recipient]
		if !ok {
			return fmt.Errorf("seed: request for unknown recipient %s", fr.Recipient)
		}
		recipient, err := s.repos.Users.GetByID(ctx, recipientID)
		if err != nil {
			return err
		}
		r := &domain.DonationRequest{
			RecipientID:   recipient.ID,
			RecipientName: recipient.Name,
			BloodGroup:    domain.BloodGroup(fr.BloodGroup),
			UnitsNeeded:   fr.Units,
			Location:      domain.Location{City: fr.City},
			Urgency:       domain.Urgency(fr.Urgency),
			Status:        domain.RequestPending,
			Notes:         fr.Notes,
		}
		if h, ok := s.hospitals[fr.Hospital]; ok {
			r.HospitalID = h.ID
		}
		if err := s.repos.Requests.Create(ctx, r); err != nil {
			return fmt.Errorf("seed: request: %w", err)
		}
		s.summary.Requests++
	}
	return nil
}

func (s *seeder) camps(ctx context.Context) error {
	for _, fc := range s.fx.Camps {
		h, ok := s.hospitals[fc.Hospital]
		if !ok {
			return fmt.Errorf("seed: camp %q for unknown hospital %s", fc.Title, fc.Hospital)
		}
		c := &domain.BloodCamp{
			HospitalID:     h.ID,
			HospitalName:   h.Name,
			Title:          fc.Title,
			Description:    fc.Description,
			Date:           s.now.AddDate(0, 0, fc.DaysFromNow).Format(domain.CampDateLayout),
			Time:           fc.Time,
			Location:       domain.Location{Address: fc.Address, City: fc.City},
			SlotsAvailable: fc.Slots,
			Status:         domain.CampUpcoming,
		}
		if err := s.repos.Camps.Create(ctx, c); err != nil {
			return fmt.Errorf("seed: camp %q: %w", fc.Title, err)
		}
		s.summary.Camps++
	}
	return nil
}
