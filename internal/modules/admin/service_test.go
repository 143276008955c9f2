package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"
	"bloodconnect/internal/modules/notification"
	"bloodconnect/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

/* ==================== MOCKS ==================== */

/* -------- UserRepository -------- */

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserFilter) ([]domain.User, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, p repository.UserPatch) (*domain.User, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

/* -------- Sender -------- */

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, d domain.NotificationDraft) (*domain.Notification, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

/* ==================== TESTS ==================== */

func TestSetUserStatus_Suspend(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewService(users, nil, Sources{}, nil, zap.NewNop())

	suspended := domain.UserSuspended
	users.On("Update", mock.Anything, "u-1", repository.UserPatch{Status: &suspended}).
		Return(&domain.User{ID: "u-1", Status: domain.UserSuspended}, nil)

	u, err := svc.SetUserStatus(context.Background(), "admin-1", "u-1", domain.UserSuspended)
	require.NoError(t, err)
	assert.Equal(t, domain.UserSuspended, u.Status)
	users.AssertExpectations(t)
}

func TestSetUserStatus_Rejects(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewService(users, nil, Sources{}, nil, zap.NewNop())

	_, err := svc.SetUserStatus(context.Background(), "admin-1", "admin-1", domain.UserSuspended)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SetUserStatus(context.Background(), "admin-1", "u-1", "banned")
	assert.ErrorIs(t, err, domain.ErrValidation)

	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUsers_Degrades(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewService(users, nil, Sources{}, nil, zap.NewNop())
	users.On("List", mock.Anything, repository.UserFilter{Role: domain.RoleDonor}).
		Return(nil, fmt.Errorf("%w: timeout", domain.ErrBackendUnavailable))

	got, err := svc.ListUsers(context.Background(), UserListQuery{Role: "donor"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.ListUsers(context.Background(), UserListQuery{Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNotifyUser(t *testing.T) {
	users := new(MockUserRepository)
	sender := new(MockSender)
	svc := NewService(users, nil, Sources{}, sender, zap.NewNop())

	users.On("GetByID", mock.Anything, "u-1").Return(&domain.User{ID: "u-1"}, nil)
	users.On("GetByID", mock.Anything, "ghost").Return(nil, domain.NotFoundf("user ghost"))
	sender.On("Send", mock.Anything, mock.MatchedBy(func(d domain.NotificationDraft) bool {
		return d.UserID == "u-1" && d.Type == domain.NotificationAdmin
	})).Return(&domain.Notification{ID: "n-1", UserID: "u-1"}, nil)

	n, err := svc.NotifyUser(context.Background(), "u-1", notification.SendRequest{Title: "Hello", Message: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, "n-1", n.ID)

	_, err = svc.NotifyUser(context.Background(), "ghost", notification.SendRequest{Title: "Hello", Message: "Welcome"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

/* ==================== memory-backed ==================== */

type env struct {
	svc   *Service
	repos *repository.Repositories
	notes *notification.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := repository.New(gateway.NewMemory(repository.Schema()))
	notes := notification.NewService(repos.Notifications, nil, zap.NewNop())
	svc := NewService(repos.Users, repos.Hospitals, Sources{
		Donors:    repos.Donors,
		Requests:  repos.Requests,
		Camps:     repos.Camps,
		Donations: repos.Donations,
	}, notes, zap.NewNop())
	return &env{svc: svc, repos: repos, notes: notes}
}

func (e *env) user(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: uuid.NewString()[:8] + "@example.com", Name: string(role), Role: role}
	require.NoError(t, e.repos.Users.Create(context.Background(), u, "hash"))
	return u
}

func (e *env) donor(t *testing.T, group domain.BloodGroup, city string, available bool) {
	t.Helper()
	d := &domain.Donor{User: *e.user(t, domain.RoleDonor), BloodGroup: group, Location: domain.Location{City: city}, Available: available}
	require.NoError(t, e.repos.Donors.Create(context.Background(), d))
}

func TestSetHospitalVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, domain.RoleHospital)
	require.NoError(t, e.repos.Hospitals.Create(ctx, &domain.Hospital{ID: u.ID, LicenseNumber: "L-9"}))

	h, err := e.svc.SetHospitalVerification(ctx, u.ID, domain.VerificationVerified)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, h.VerificationStatus)

	inbox, err := e.notes.List(ctx, u.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Verification verified", inbox[0].Title)

	_, err = e.svc.SetHospitalVerification(ctx, "missing", domain.VerificationRejected)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = e.svc.SetHospitalVerification(ctx, u.ID, "maybe")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVerifyUser(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, domain.RoleRecipient)

	got, err := e.svc.VerifyUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestAnalytics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.donor(t, domain.BloodOPos, "Mumbai", true)
	e.donor(t, domain.BloodOPos, "mumbai", false)
	e.donor(t, domain.BloodANeg, "Delhi", true)
	e.donor(t, domain.BloodBPos, "", true)

	for _, status := range []domain.RequestStatus{domain.RequestPending, domain.RequestPending, domain.RequestMatched} {
		require.NoError(t, e.repos.Requests.Create(ctx, &domain.DonationRequest{
			RecipientID: "r", BloodGroup: domain.BloodOPos, UnitsNeeded: 1, Urgency: domain.UrgencyLow, Status: status,
		}))
	}
	require.NoError(t, e.repos.Camps.Create(ctx, &domain.BloodCamp{
		HospitalID: "h", Title: "Drive", Date: "2025-09-01", Time: "09:00", SlotsAvailable: 5, Status: domain.CampUpcoming,
	}))
	require.NoError(t, e.repos.Donations.Create(ctx, &domain.DonationRecord{
		DonorID: "d", HospitalID: "h", BloodGroup: domain.BloodOPos, Units: 2, DonatedAt: time.Now().UTC(),
	}))

	a, err := e.svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, a.TotalDonors)
	assert.Equal(t, 3, a.AvailableDonors)
	assert.Equal(t, 2, a.BloodGroups[domain.BloodOPos])
	assert.Equal(t, 0, a.BloodGroups[domain.BloodABNeg])
	assert.Len(t, a.BloodGroups, 8)
	assert.Equal(t, 2, a.RequestsByStatus[domain.RequestPending])
	assert.Equal(t, 1, a.RequestsByStatus[domain.RequestMatched])
	assert.Equal(t, 1, a.CampsByStatus[domain.CampUpcoming])
	assert.Equal(t, 1, a.TotalDonations)
	assert.Equal(t, 2, a.UnitsCollected)
	require.Len(t, a.TopCities, 2)
	assert.Equal(t, CityCount{City: "Mumbai", Donors: 2}, a.TopCities[0])
	assert.Equal(t, CityCount{City: "Delhi", Donors: 1}, a.TopCities[1])
}
