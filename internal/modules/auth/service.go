package auth

import (
	"context"
	"errors"
	"strings"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service contains all business logic for authentication
type Service struct {
	users     UserRepository
	donors    DonorRepository
	hospitals HospitalRepository
	inventory InventoryInitializer
	tokens    TokenIssuer
	revoker   TokenRevoker
	logger    *zap.Logger
}

func NewService(
	users UserRepository,
	donors DonorRepository,
	hospitals HospitalRepository,
	inventory InventoryInitializer,
	tokens TokenIssuer,
	revoker TokenRevoker,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:     users,
		donors:    donors,
		hospitals: hospitals,
		inventory: inventory,
		tokens:    tokens,
		revoker:   revoker,
		logger:    logger,
	}
}

// Register creates the user and, for donors and hospitals, the role
// profile. A hospital also gets its eight empty inventory rows.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	switch req.Role {
	case domain.RoleDonor:
		if req.Donor == nil {
			return nil, domain.Validationf("donor profile is required")
		}
	case domain.RoleHospital:
		if req.Hospital == nil {
			return nil, domain.Validationf("hospital profile is required")
		}
	case domain.RoleRecipient:
	default:
		// admins are created from the CLI only
		return nil, domain.Validationf("role %q cannot self-register", req.Role)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
		Role:  req.Role,
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.createProfile(ctx, user, req); err != nil {
		if delErr := s.users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error("orphaned user after failed profile creation",
				zap.String("user_id", user.ID),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *Service) createProfile(ctx context.Context, user *domain.User, req RegisterRequest) error {
	switch user.Role {
	case domain.RoleDonor:
		p := req.Donor
		available := true
		if p.Available != nil {
			available = *p.Available
		}
		return s.donors.Create(ctx, &domain.Donor{
			User:              *user,
			BloodGroup:        p.BloodGroup,
			Age:               p.Age,
			Gender:            p.Gender,
			Location:          p.Location.Domain(),
			Available:         available,
			MedicalConditions: p.MedicalConditions,
		})

	case domain.RoleHospital:
		p := req.Hospital
		if err := s.hospitals.Create(ctx, &domain.Hospital{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			Phone:         user.Phone,
			Location:      p.Location.Domain(),
			ContactPerson: p.ContactPerson,
			LicenseNumber: p.LicenseNumber,
		}); err != nil {
			return err
		}
		if _, err := s.inventory.Initialize(ctx, user.ID, user.ID); err != nil {
			s.logger.Warn("inventory initialization failed",
				zap.String("hospital_id", user.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, hash, err := s.users.GetCredentials(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == domain.UserSuspended {
		return nil, ErrAccountSuspended
	}

	return s.issue(user)
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return domain.ErrUnauthorized
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &MeResponse{User: user}

	switch user.Role {
	case domain.RoleDonor:
		d, err := s.donors.GetByID(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		out.Donor = d
	case domain.RoleHospital:
		h, err := s.hospitals.GetByID(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		out.Hospital = h
	}
	return out, nil
}

// HashPassword is exported for the CLI that seeds admin accounts.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Service) hashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (s *Service) issue(user *domain.User) (*AuthResult, error) {
	token, claims, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
