package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func newSQLite(t *testing.T) gateway.Gateway {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gw := gateway.NewSQL(db, Schema())
	require.NoError(t, gw.Migrate(context.Background()))
	return gw
}

// eachBackend runs fn against the in-memory and SQLite gateways.
func eachBackend(t *testing.T, fn func(t *testing.T, repos *Repositories)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, New(gateway.NewMemory(Schema())))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, New(newSQLite(t)))
	})
}

func createUser(t *testing.T, repos *Repositories, role domain.Role, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email: fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Name:  name,
		Role:  role,
	}
	require.NoError(t, repos.Users.Create(context.Background(), u, "hash"))
	return u
}

func createDonor(t *testing.T, repos *Repositories, name string, group domain.BloodGroup, city string, available bool) *domain.Donor {
	t.Helper()
	u := createUser(t, repos, domain.RoleDonor, name)
	d := &domain.Donor{
		User:       *u,
		BloodGroup: group,
		Location:   domain.Location{City: city},
		Available:  available,
	}
	require.NoError(t, repos.Donors.Create(context.Background(), d))
	return d
}

func createCamp(t *testing.T, repos *Repositories, slots int) *domain.BloodCamp {
	t.Helper()
	c := &domain.BloodCamp{
		HospitalID:     "h-1",
		HospitalName:   "City Hospital",
		Title:          "Weekend drive",
		Date:           "2025-06-01",
		Time:           "09:00",
		Location:       domain.Location{City: "Mumbai"},
		SlotsAvailable: slots,
		Status:         domain.CampUpcoming,
	}
	require.NoError(t, repos.Camps.Create(context.Background(), c))
	return c
}

func TestUserRepository(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		u := &domain.User{Email: "  Alice@Example.com ", Name: "Alice", Role: domain.RoleDonor}
		require.NoError(t, repos.Users.Create(ctx, u, "secret-hash"))
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, domain.UserActive, u.Status)

		got, hash, err := repos.Users.GetCredentials(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "secret-hash", hash)

		err = repos.Users.Create(ctx, &domain.User{Email: "alice@example.com", Role: domain.RoleRecipient}, "x")
		assert.ErrorIs(t, err, domain.ErrConflict)

		suspended := domain.UserSuspended
		updated, err := repos.Users.Update(ctx, u.ID, UserPatch{Status: &suspended})
		require.NoError(t, err)
		assert.Equal(t, domain.UserSuspended, updated.Status)

		_, err = repos.Users.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDonorRepository_Search(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		a := createDonor(t, repos, "a", domain.BloodOPos, "Mumbai", true)
		createDonor(t, repos, "b", domain.BloodOPos, "Pune", true)
		c := createDonor(t, repos, "c", domain.BloodONeg, "Navi Mumbai", true)
		createDonor(t, repos, "d", domain.BloodOPos, "mumbai", false)

		yes := true
		got, err := repos.Donors.Search(ctx, domain.DonorFilter{BloodGroup: domain.BloodOPos, City: "MUMBAI", Available: &yes})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, "a", got[0].Name)

		got, err = repos.Donors.Search(ctx, domain.DonorFilter{
			BloodGroups: []domain.BloodGroup{domain.BloodONeg, domain.BloodOPos},
			City:        "mumbai",
			Available:   &yes,
		})
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, d := range got {
			ids[i] = d.ID
		}
		assert.Equal(t, []string{a.ID, c.ID}, ids)

		got, err = repos.Donors.Search(ctx, domain.DonorFilter{BloodGroups: []domain.BloodGroup{}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestDonorRepository_Update(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		d := createDonor(t, repos, "a", domain.BloodAPos, "Delhi", true)

		last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		no := false
		got, err := repos.Donors.Update(ctx, d.ID, DonorPatch{
			Available:         &no,
			LastDonationDate:  &last,
			MedicalConditions: []string{"asthma"},
		})
		require.NoError(t, err)
		assert.False(t, got.Available)
		require.NotNil(t, got.LastDonationDate)
		assert.True(t, last.Equal(*got.LastDonationDate))
		assert.Equal(t, []string{"asthma"}, got.MedicalConditions)

		_, err = repos.Donors.Update(ctx, "missing", DonorPatch{Available: &no})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRequestRepository(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		first := &domain.DonationRequest{
			RecipientID: "r-1",
			BloodGroup:  domain.BloodBNeg,
			UnitsNeeded: 2,
			Urgency:     domain.UrgencyHigh,
			Status:      domain.RequestPending,
			Location:    domain.Location{City: "Chennai"},
		}
		require.NoError(t, repos.Requests.Create(ctx, first))
		second := &domain.DonationRequest{
			RecipientID: "r-1",
			BloodGroup:  domain.BloodAPos,
			UnitsNeeded: 1,
			Urgency:     domain.UrgencyLow,
			Status:      domain.RequestPending,
		}
		require.NoError(t, repos.Requests.Create(ctx, second))

		list, err := repos.Requests.List(ctx, domain.RequestFilter{RecipientID: "r-1"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID, "newest first")

		matched := domain.RequestMatched
		got, err := repos.Requests.Update(ctx, first.ID, RequestPatch{Status: &matched, MatchedDonors: []string{"d-1", "d-2"}})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestMatched, got.Status)
		assert.Equal(t, []string{"d-1", "d-2"}, got.MatchedDonors)
		assert.Equal(t, 2, got.UnitsNeeded)
		assert.Equal(t, "Chennai", got.Location.City)

		_, err = repos.Requests.Update(ctx, "missing", RequestPatch{Status: &matched})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCampRepository_Register(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		camp := createCamp(t, repos, 2)

		got, err := repos.Camps.Register(ctx, camp.ID, "d-1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.SlotsBooked)
		assert.Equal(t, []string{"d-1"}, got.RegisteredDonors)

		_, err = repos.Camps.Register(ctx, camp.ID, "d-1")
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

		_, err = repos.Camps.Register(ctx, camp.ID, "d-2")
		require.NoError(t, err)

		_, err = repos.Camps.Register(ctx, camp.ID, "d-3")
		assert.ErrorIs(t, err, domain.ErrCampFull)

		got, err = repos.Camps.GetByID(ctx, camp.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.SlotsBooked)
		assert.ElementsMatch(t, []string{"d-1", "d-2"}, got.RegisteredDonors)

		_, err = repos.Camps.Register(ctx, "missing", "d-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCampRepository_RegisterConcurrent(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		const slots, donors = 5, 12
		camp := createCamp(t, repos, slots)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			full      int
		)
		for i := 0; i < donors; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repos.Camps.Register(ctx, camp.ID, fmt.Sprintf("d-%d", i))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrCampFull):
					full++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, slots, succeeded)
		assert.Equal(t, donors-slots, full)

		got, err := repos.Camps.GetByID(ctx, camp.ID)
		require.NoError(t, err)
		assert.Equal(t, slots, got.SlotsBooked)
		assert.Len(t, got.RegisteredDonors, slots)
	})
}

func TestCampRepository_Unregister(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		camp := createCamp(t, repos, 1)
		_, err := repos.Camps.Register(ctx, camp.ID, "d-1")
		require.NoError(t, err)

		got, err := repos.Camps.Unregister(ctx, camp.ID, "d-1")
		require.NoError(t, err)
		assert.Equal(t, 0, got.SlotsBooked)
		assert.Empty(t, got.RegisteredDonors)

		_, err = repos.Camps.Unregister(ctx, camp.ID, "d-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// the freed slot can be taken again
		_, err = repos.Camps.Register(ctx, camp.ID, "d-2")
		require.NoError(t, err)
	})
}

// campFaults wraps a gateway and injects failures on camp writes.
type campFaults struct {
	gateway.Gateway
	stuckCounter bool
	failDelete   bool
}

func (g *campFaults) UpdateWhere(ctx context.Context, table string, q gateway.Query, patch gateway.Row) (int64, error) {
	if g.stuckCounter && table == TableCamps {
		return 0, nil
	}
	return g.Gateway.UpdateWhere(ctx, table, q, patch)
}

func (g *campFaults) Delete(ctx context.Context, table, id string) error {
	if g.failDelete && table == TableCampRegistrations {
		return gateway.ErrUnavailable
	}
	return g.Gateway.Delete(ctx, table, id)
}

func TestCampRepository_UnregisterKeepsCounterConsistent(t *testing.T) {
	ctx := context.Background()
	faults := &campFaults{Gateway: gateway.NewMemory(Schema())}
	repos := New(faults)
	camp := createCamp(t, repos, 3)
	_, err := repos.Camps.Register(ctx, camp.ID, "d-1")
	require.NoError(t, err)

	t.Run("counter never moves", func(t *testing.T) {
		faults.stuckCounter = true
		defer func() { faults.stuckCounter = false }()

		_, err := repos.Camps.Unregister(ctx, camp.ID, "d-1")
		assert.ErrorIs(t, err, domain.ErrConflict)

		got, err := repos.Camps.GetByID(ctx, camp.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.SlotsBooked)
		assert.Equal(t, []string{"d-1"}, got.RegisteredDonors)
	})

	t.Run("registration delete fails", func(t *testing.T) {
		faults.failDelete = true
		defer func() { faults.failDelete = false }()

		_, err := repos.Camps.Unregister(ctx, camp.ID, "d-1")
		assert.Error(t, err)

		got, err := repos.Camps.GetByID(ctx, camp.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.SlotsBooked)
		assert.Equal(t, []string{"d-1"}, got.RegisteredDonors)
	})

	got, err := repos.Camps.Unregister(ctx, camp.ID, "d-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SlotsBooked)
	assert.Empty(t, got.RegisteredDonors)
}

func TestCampRepository_List(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		late := &domain.BloodCamp{HospitalID: "h-1", Title: "late", Date: "2025-07-01", Time: "10:00",
			Location: domain.Location{City: "Pune"}, SlotsAvailable: 3, Status: domain.CampUpcoming}
		early := &domain.BloodCamp{HospitalID: "h-2", Title: "early", Date: "2025-05-01", Time: "08:00",
			Location: domain.Location{City: "Mumbai"}, SlotsAvailable: 3, Status: domain.CampUpcoming}
		require.NoError(t, repos.Camps.Create(ctx, late))
		require.NoError(t, repos.Camps.Create(ctx, early))
		_, err := repos.Camps.Register(ctx, late.ID, "d-9")
		require.NoError(t, err)

		all, err := repos.Camps.List(ctx, domain.CampFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "early", all[0].Title)
		assert.Equal(t, []string{"d-9"}, all[1].RegisteredDonors)
		assert.Equal(t, []string{}, all[0].RegisteredDonors)

		byCity, err := repos.Camps.List(ctx, domain.CampFilter{City: "pun"})
		require.NoError(t, err)
		require.Len(t, byCity, 1)
		assert.Equal(t, late.ID, byCity[0].ID)

		mine, err := repos.Camps.ListForDonor(ctx, "d-9")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, late.ID, mine[0].ID)
	})
}

func TestInventoryRepository_Adjust(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()

		item, before, err := repos.Inventory.Adjust(ctx, "h-1", domain.BloodAPos, 5, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 0, before)
		assert.Equal(t, 5, item.UnitsAvailable)
		assert.Equal(t, "u-1", item.UpdatedBy)

		item, before, err = repos.Inventory.Adjust(ctx, "h-1", domain.BloodAPos, -3, "u-2")
		require.NoError(t, err)
		assert.Equal(t, 5, before)
		assert.Equal(t, 2, item.UnitsAvailable)

		item, _, err = repos.Inventory.Adjust(ctx, "h-1", domain.BloodAPos, -10, "u-2")
		require.NoError(t, err)
		assert.Equal(t, 0, item.UnitsAvailable, "clamped at zero")

		item, _, err = repos.Inventory.Adjust(ctx, "h-1", domain.BloodONeg, -4, "u-2")
		require.NoError(t, err)
		assert.Equal(t, 0, item.UnitsAvailable, "missing row created clamped")

		items, err := repos.Inventory.List(ctx, "h-1")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestInventoryRepository_AdjustConcurrent(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		_, err := repos.Inventory.Initialize(ctx, "h-1", "system")
		require.NoError(t, err)

		const workers = 6
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := repos.Inventory.Adjust(ctx, "h-1", domain.BloodBPos, 2, "u"); err != nil {
					t.Errorf("adjust: %v", err)
				}
			}()
		}
		wg.Wait()

		items, err := repos.Inventory.List(ctx, "h-1")
		require.NoError(t, err)
		for _, it := range items {
			if it.BloodGroup == domain.BloodBPos {
				assert.Equal(t, 2*workers, it.UnitsAvailable)
			}
		}
	})
}

func TestInventoryRepository_InitializeIsIdempotent(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		_, _, err := repos.Inventory.Adjust(ctx, "h-1", domain.BloodABNeg, 7, "u")
		require.NoError(t, err)

		items, err := repos.Inventory.Initialize(ctx, "h-1", "system")
		require.NoError(t, err)
		assert.Len(t, items, 8)

		items, err = repos.Inventory.Initialize(ctx, "h-1", "system")
		require.NoError(t, err)
		assert.Len(t, items, 8)
		for _, it := range items {
			if it.BloodGroup == domain.BloodABNeg {
				assert.Equal(t, 7, it.UnitsAvailable)
			}
		}
	})
}

func TestInventoryRepository_SetExpiringAndMovements(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		item, err := repos.Inventory.SetExpiring(ctx, "h-1", domain.BloodOPos, 3, "u")
		require.NoError(t, err)
		assert.Equal(t, 3, item.ExpiringUnits)
		assert.Equal(t, 0, item.UnitsAvailable)

		item, err = repos.Inventory.SetExpiring(ctx, "h-1", domain.BloodOPos, 1, "u")
		require.NoError(t, err)
		assert.Equal(t, 1, item.ExpiringUnits)

		expiry := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repos.Inventory.RecordMovement(ctx, &domain.InventoryMovement{
			HospitalID: "h-1", BloodGroup: domain.BloodOPos, Delta: 4, UnitsAfter: 4,
			Reason: "drive", ExpiryDate: &expiry, Actor: "u",
		}))
		mvs, err := repos.Inventory.ListMovements(ctx, "h-1", 10)
		require.NoError(t, err)
		require.Len(t, mvs, 1)
		assert.Equal(t, "drive", mvs[0].Reason)
		require.NotNil(t, mvs[0].ExpiryDate)
		assert.True(t, expiry.Equal(*mvs[0].ExpiryDate))
	})
}

func TestNotificationRepository(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, repos.Notifications.Create(ctx, &domain.Notification{
				UserID: "u-1", Title: fmt.Sprintf("n%d", i), Type: domain.NotificationAdmin, Priority: domain.PriorityLow,
			}))
		}
		require.NoError(t, repos.Notifications.Create(ctx, &domain.Notification{
			UserID: "u-2", Title: "other", Type: domain.NotificationAdmin, Priority: domain.PriorityLow,
		}))

		unread, err := repos.Notifications.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), unread)

		n, err := repos.Notifications.MarkAllRead(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		unread, err = repos.Notifications.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Zero(t, unread)

		unread, err = repos.Notifications.CountUnread(ctx, "u-2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), unread)
	})
}

func TestNotificationRepository_Preferences(t *testing.T) {
	eachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()

		p, err := repos.Notifications.GetPreferences(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultPreferences("u-1"), *p)

		require.NoError(t, repos.Notifications.SavePreferences(ctx, &domain.NotificationPreferences{
			UserID: "u-1", SMS: true, EmergencyOnly: true,
		}))
		p, err = repos.Notifications.GetPreferences(ctx, "u-1")
		require.NoError(t, err)
		assert.True(t, p.SMS)
		assert.True(t, p.EmergencyOnly)
		assert.False(t, p.Email)

		require.NoError(t, repos.Notifications.SavePreferences(ctx, &domain.NotificationPreferences{
			UserID: "u-1", Email: true,
		}))
		p, err = repos.Notifications.GetPreferences(ctx, "u-1")
		require.NoError(t, err)
		assert.True(t, p.Email)
		assert.False(t, p.SMS)
	})
}
