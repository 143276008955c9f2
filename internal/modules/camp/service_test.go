package camp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"
	"bloodconnect/internal/middleware"
	"bloodconnect/internal/modules/donor"
	"bloodconnect/internal/pkg/jwt"
	"bloodconnect/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingNotifier struct {
	mu     sync.Mutex
	drafts []domain.NotificationDraft
}

func (n *recordingNotifier) Notify(_ context.Context, drafts ...domain.NotificationDraft) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drafts = append(n.drafts, drafts...)
}

type fixture struct {
	svc      *Service
	repos    *repository.Repositories
	notifier *recordingNotifier
	hospital *domain.Hospital
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := repository.New(gateway.NewMemory(repository.Schema()))
	notifier := &recordingNotifier{}
	donors := donor.NewService(repos.Donors, repos.Donations, repos.Users, nil, zap.NewNop())

	u := &domain.User{Email: "city@hospital.example", Name: "City Hospital", Role: domain.RoleHospital}
	require.NoError(t, repos.Users.Create(ctx, u, "hash"))
	h := &domain.Hospital{ID: u.ID, Location: domain.Location{City: "Jaipur"}, LicenseNumber: "LIC-1"}
	require.NoError(t, repos.Hospitals.Create(ctx, h))

	return &fixture{
		svc:      NewService(repos.Camps, repos.Hospitals, donors, notifier, zap.NewNop()),
		repos:    repos,
		notifier: notifier,
		hospital: h,
	}
}

func (f *fixture) donor(t *testing.T, city string, available bool) *domain.Donor {
	t.Helper()
	u := &domain.User{
		Email: fmt.Sprintf("donor-%s@example.com", uuid.NewString()[:8]),
		Name:  "Donor",
		Role:  domain.RoleDonor,
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u, "hash"))
	d := &domain.Donor{User: *u, BloodGroup: domain.BloodOPos, Location: domain.Location{City: city}, Available: available}
	require.NoError(t, f.repos.Donors.Create(context.Background(), d))
	return d
}

func campRequest(slots int) CreateCampRequest {
	return CreateCampRequest{
		Title:          "Saturday drive",
		Date:           "2025-07-05",
		Time:           "10:00",
		Location:       LocationInput{City: "Jaipur"},
		SlotsAvailable: slots,
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	invited := f.donor(t, "jaipur", true)
	f.donor(t, "Jaipur", false)
	f.donor(t, "Udaipur", true)

	c, err := f.svc.Create(context.Background(), f.hospital.ID, campRequest(20))
	require.NoError(t, err)
	assert.Equal(t, "City Hospital", c.HospitalName)
	assert.Equal(t, domain.CampUpcoming, c.Status)
	assert.Equal(t, 0, c.SlotsBooked)

	require.Len(t, f.notifier.drafts, 1)
	assert.Equal(t, invited.ID, f.notifier.drafts[0].UserID)
	assert.Equal(t, domain.NotificationCampReminder, f.notifier.drafts[0].Type)
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.hospital.ID, campRequest(0))
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := campRequest(5)
	bad.Date = "05/07/2025"
	_, err = f.svc.Create(ctx, f.hospital.ID, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Create(ctx, "not-a-hospital", campRequest(5))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, f.hospital.ID, campRequest(2))
	require.NoError(t, err)

	got, err := f.svc.Register(ctx, c.ID, "d-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.SlotsBooked)
	assert.Equal(t, []string{"d-1"}, got.RegisteredDonors)

	_, err = f.svc.Register(ctx, c.ID, "d-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	_, err = f.svc.Register(ctx, c.ID, "d-2")
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, c.ID, "d-3")
	assert.ErrorIs(t, err, domain.ErrCampFull)

	final, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, final.SlotsBooked)
	assert.Len(t, final.RegisteredDonors, 2)

	_, err = f.svc.Register(ctx, "missing", "d-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Register_ClosedCamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, f.hospital.ID, campRequest(5))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.hospital.ID, domain.RoleHospital, c.ID, domain.CampCancelled)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, c.ID, "d-1")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Register_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const slots, donors = 4, 10
	c, err := f.svc.Create(ctx, f.hospital.ID, campRequest(slots))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, donors)
	for i := 0; i < donors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Register(ctx, c.ID, fmt.Sprintf("donor-%d", i))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	ok, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrCampFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, slots, ok)
	assert.Equal(t, donors-slots, full)

	final, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, slots, final.SlotsBooked)
	assert.Len(t, final.RegisteredDonors, slots)
}

func TestService_Unregister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, f.hospital.ID, campRequest(1))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, c.ID, "d-1")
	require.NoError(t, err)

	got, err := f.svc.Unregister(ctx, c.ID, "d-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SlotsBooked)
	assert.Empty(t, got.RegisteredDonors)

	_, err = f.svc.Unregister(ctx, c.ID, "d-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the freed slot can be taken again
	_, err = f.svc.Register(ctx, c.ID, "d-2")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.hospital.ID, domain.RoleHospital, c.ID, domain.CampCompleted)
	require.NoError(t, err)
	_, err = f.svc.Unregister(ctx, c.ID, "d-2")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, f.hospital.ID, campRequest(3))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, "other-hospital", domain.RoleHospital, c.ID, domain.CampOngoing)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, f.hospital.ID, domain.RoleHospital, c.ID, "postponed")
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.UpdateStatus(ctx, "admin", domain.RoleAdmin, c.ID, domain.CampOngoing)
	require.NoError(t, err)
	assert.Equal(t, domain.CampOngoing, got.Status)
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	later := campRequest(3)
	later.Date = "2025-08-01"
	_, err := f.svc.Create(ctx, f.hospital.ID, later)
	require.NoError(t, err)
	earlier, err := f.svc.Create(ctx, f.hospital.ID, campRequest(3))
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.CampFilter{City: "JAI"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, earlier.ID, all[0].ID, "ordered by date")

	_, err = f.svc.Register(ctx, earlier.ID, "d-1")
	require.NoError(t, err)
	mine, err := f.svc.ListForDonor(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, earlier.ID, mine[0].ID)

	_, err = f.svc.List(ctx, domain.CampFilter{Status: "someday"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	tokens := jwt.New("secret", time.Hour)
	router := gin.New()
	NewHandler(f.svc).RegisterRoutes(router.Group("/api/v1", middleware.JWTAuth(tokens, nil)))

	token := func(id string, role domain.Role) string {
		tok, _, err := tokens.GenerateToken(id, string(role))
		require.NoError(t, err)
		return tok
	}
	do := func(method, path, tok, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/v1/camps", token(f.hospital.ID, domain.RoleHospital),
		`{"title":"Drive","date":"2025-07-05","time":"25:00","location":{"city":"Jaipur"},"slots_available":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, err := f.svc.Create(context.Background(), f.hospital.ID, campRequest(1))
	require.NoError(t, err)

	w = do(http.MethodPost, "/api/v1/camps/"+c.ID+"/register", token("d-1", domain.RoleDonor), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/api/v1/camps/"+c.ID+"/register", token("d-1", domain.RoleDonor), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_REGISTERED")

	w = do(http.MethodPost, "/api/v1/camps/"+c.ID+"/register", token("d-2", domain.RoleDonor), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CAMP_FULL")

	w = do(http.MethodPost, "/api/v1/camps/"+c.ID+"/register", token(f.hospital.ID, domain.RoleHospital), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(http.MethodGet, "/api/v1/camps?mine=true", token("d-1", domain.RoleDonor), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
