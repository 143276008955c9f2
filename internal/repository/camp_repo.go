package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const (
	TableCamps             = "blood_camps"
	TableCampRegistrations = "camp_registrations"
)

type CampRepository struct {
	gw gateway.Gateway
}

func NewCampRepository(gw gateway.Gateway) *CampRepository {
	return &CampRepository{gw: gw}
}

type campModel struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	HospitalID     string    `gorm:"column:hospital_id;type:varchar(36);index;not null" json:"hospital_id"`
	HospitalName   string    `gorm:"column:hospital_name" json:"hospital_name"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	Description    string    `gorm:"column:description" json:"description"`
	CampDate       string    `gorm:"column:camp_date;type:varchar(10);index" json:"camp_date"`
	CampTime       string    `gorm:"column:camp_time;type:varchar(5)" json:"camp_time"`
	Address        string    `gorm:"column:address" json:"address"`
	City           string    `gorm:"column:city;index" json:"city"`
	State          string    `gorm:"column:state" json:"state"`
	Latitude       float64   `gorm:"column:latitude" json:"latitude"`
	Longitude      float64   `gorm:"column:longitude" json:"longitude"`
	SlotsAvailable int       `gorm:"column:slots_available;not null" json:"slots_available"`
	SlotsBooked    int       `gorm:"column:slots_booked;not null" json:"slots_booked"`
	Status         string    `gorm:"column:status;index;not null" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (campModel) TableName() string { return TableCamps }

type campRegistrationModel struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	CampID    string    `gorm:"column:camp_id;type:varchar(36);uniqueIndex:idx_camp_donor;not null" json:"camp_id"`
	DonorID   string    `gorm:"column:donor_id;type:varchar(36);uniqueIndex:idx_camp_donor;index;not null" json:"donor_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (campRegistrationModel) TableName() string { return TableCampRegistrations }

func toDomainCamp(m campModel, donors []string) domain.BloodCamp {
	return domain.BloodCamp{
		ID:           m.ID,
		HospitalID:   m.HospitalID,
		HospitalName: m.HospitalName,
		Title:        m.Title,
		Description:  m.Description,
		Date:         m.CampDate,
		Time:         m.CampTime,
		Location: domain.Location{
			Address:   m.Address,
			City:      m.City,
			State:     m.State,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		},
		SlotsAvailable:   m.SlotsAvailable,
		SlotsBooked:      m.SlotsBooked,
		RegisteredDonors: orEmpty(donors),
		Status:           domain.CampStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *CampRepository) Create(ctx context.Context, c *domain.BloodCamp) error {
	now := utcNow()
	c.ID = uuid.NewString()
	c.SlotsBooked = 0
	c.RegisteredDonors = []string{}
	c.CreatedAt, c.UpdatedAt = now, now

	row, err := encodeRow(campModel{
		ID:             c.ID,
		HospitalID:     c.HospitalID,
		HospitalName:   c.HospitalName,
		Title:          c.Title,
		Description:    c.Description,
		CampDate:       c.Date,
		CampTime:       c.Time,
		Address:        c.Location.Address,
		City:           c.Location.City,
		State:          c.Location.State,
		Latitude:       c.Location.Latitude,
		Longitude:      c.Location.Longitude,
		SlotsAvailable: c.SlotsAvailable,
		SlotsBooked:    0,
		Status:         string(c.Status),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableCamps, row)
	return mapErr(err)
}

func (r *CampRepository) getModel(ctx context.Context, id string) (*campModel, error) {
	rows, err := r.gw.Select(ctx, TableCamps, gateway.Where(gateway.Eq("id", id)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("camp %s", id)
	}
	var m campModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CampRepository) registrations(ctx context.Context, q gateway.Query) ([]campRegistrationModel, error) {
	rows, err := r.gw.Select(ctx, TableCampRegistrations, q.OrderBy("created_at", false))
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeRows[campRegistrationModel](rows)
}

func (r *CampRepository) GetByID(ctx context.Context, id string) (*domain.BloodCamp, error) {
	m, err := r.getModel(ctx, id)
	if err != nil {
		return nil, err
	}
	regs, err := r.registrations(ctx, gateway.Where(gateway.Eq("camp_id", id)))
	if err != nil {
		return nil, err
	}
	donors := make([]string, len(regs))
	for i, reg := range regs {
		donors[i] = reg.DonorID
	}
	c := toDomainCamp(*m, donors)
	return &c, nil
}

// List returns camps ordered by date. Registered donor ids are loaded in one
// extra query for the whole page.
func (r *CampRepository) List(ctx context.Context, f domain.CampFilter) ([]domain.BloodCamp, error) {
	q := gateway.Query{}
	if f.HospitalID != "" {
		q = q.And(gateway.Eq("hospital_id", f.HospitalID))
	}
	if f.Status != "" {
		q = q.And(gateway.Eq("status", string(f.Status)))
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.And(gateway.ILike("city", city))
	}
	if f.FromDate != "" {
		q = q.And(gateway.Gte("camp_date", f.FromDate))
	}

	rows, err := r.gw.Select(ctx, TableCamps, q.OrderBy("camp_date", false).OrderBy("camp_time", false).WithLimit(f.Limit))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[campModel](rows)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []domain.BloodCamp{}, nil
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	regs, err := r.registrations(ctx, gateway.Where(gateway.In("camp_id", ids)))
	if err != nil {
		return nil, err
	}
	byCamp := make(map[string][]string, len(models))
	for _, reg := range regs {
		byCamp[reg.CampID] = append(byCamp[reg.CampID], reg.DonorID)
	}

	out := make([]domain.BloodCamp, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainCamp(m, byCamp[m.ID]))
	}
	return out, nil
}

// ListForDonor returns the camps a donor is registered for.
func (r *CampRepository) ListForDonor(ctx context.Context, donorID string) ([]domain.BloodCamp, error) {
	regs, err := r.registrations(ctx, gateway.Where(gateway.Eq("donor_id", donorID)))
	if err != nil {
		return nil, err
	}
	out := make([]domain.BloodCamp, 0, len(regs))
	for _, reg := range regs {
		c, err := r.GetByID(ctx, reg.CampID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *CampRepository) UpdateStatus(ctx context.Context, id string, status domain.CampStatus) (*domain.BloodCamp, error) {
	_, err := r.gw.Update(ctx, TableCamps, id, gateway.Row{
		"status":     string(status),
		"updated_at": utcNow(),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return r.GetByID(ctx, id)
}

// Register books one slot of campID for donorID.
//
// The registration row is inserted first; its unique (camp_id, donor_id)
// index rejects duplicates. The slot counter is then advanced with a
// compare-and-set on slots_booked. If the camp turns out to be full, or the
// counter cannot be advanced, the registration row is removed again.
func (r *CampRepository) Register(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error) {
	if _, err := r.getModel(ctx, campID); err != nil {
		return nil, err
	}

	reg := campRegistrationModel{
		ID:        uuid.NewString(),
		CampID:    campID,
		DonorID:   donorID,
		CreatedAt: utcNow(),
	}
	row, err := encodeRow(reg)
	if err != nil {
		return nil, err
	}
	if _, err := r.gw.Insert(ctx, TableCampRegistrations, row); err != nil {
		err = mapErr(err)
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := r.getModel(ctx, campID)
		if err != nil {
			return nil, r.rollbackRegistration(ctx, reg.ID, err)
		}
		if m.SlotsBooked >= m.SlotsAvailable {
			return nil, r.rollbackRegistration(ctx, reg.ID, domain.ErrCampFull)
		}
		n, err := r.gw.UpdateWhere(ctx, TableCamps, gateway.Where(
			gateway.Eq("id", campID),
			gateway.Eq("slots_booked", m.SlotsBooked),
		), gateway.Row{
			"slots_booked": m.SlotsBooked + 1,
			"updated_at":   utcNow(),
		})
		if err != nil {
			return nil, r.rollbackRegistration(ctx, reg.ID, mapErr(err))
		}
		if n == 1 {
			return r.GetByID(ctx, campID)
		}
	}
	return nil, r.rollbackRegistration(ctx, reg.ID,
		fmt.Errorf("%w: camp %s is too contended", domain.ErrConflict, campID))
}

func (r *CampRepository) rollbackRegistration(ctx context.Context, regID string, cause error) error {
	if err := r.gw.Delete(context.WithoutCancel(ctx), TableCampRegistrations, regID); err != nil {
		return fmt.Errorf("%w (registration cleanup failed: %v)", cause, err)
	}
	return cause
}

// Unregister frees the donor's slot. The counter is decremented first with
// the same compare-and-set scheme used by Register, then the registration row
// is removed; if that removal fails the slot is booked again.
func (r *CampRepository) Unregister(ctx context.Context, campID, donorID string) (*domain.BloodCamp, error) {
	regs, err := r.registrations(ctx, gateway.Where(
		gateway.Eq("camp_id", campID),
		gateway.Eq("donor_id", donorID),
	))
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, domain.NotFoundf("registration of donor %s for camp %s", donorID, campID)
	}

	released, err := r.shiftBooked(ctx, campID, -1)
	if err != nil {
		return nil, err
	}
	if err := r.gw.Delete(ctx, TableCampRegistrations, regs[0].ID); err != nil {
		err = mapErr(err)
		if released {
			if _, rerr := r.shiftBooked(context.WithoutCancel(ctx), campID, 1); rerr != nil {
				return nil, fmt.Errorf("%w (slot restore failed: %v)", err, rerr)
			}
		}
		return nil, err
	}
	return r.GetByID(ctx, campID)
}

// shiftBooked moves slots_booked by delta without going below zero. It
// reports whether the counter changed.
func (r *CampRepository) shiftBooked(ctx context.Context, campID string, delta int) (bool, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := r.getModel(ctx, campID)
		if err != nil {
			return false, err
		}
		next := max(0, m.SlotsBooked+delta)
		if next == m.SlotsBooked {
			return false, nil
		}
		n, err := r.gw.UpdateWhere(ctx, TableCamps, gateway.Where(
			gateway.Eq("id", campID),
			gateway.Eq("slots_booked", m.SlotsBooked),
		), gateway.Row{
			"slots_booked": next,
			"updated_at":   utcNow(),
		})
		if err != nil {
			return false, mapErr(err)
		}
		if n == 1 {
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: camp %s is too contended", domain.ErrConflict, campID)
}

// CountRegistrations is used by analytics.
func (r *CampRepository) CountRegistrations(ctx context.Context) (int, error) {
	rows, err := r.gw.Select(ctx, TableCampRegistrations, gateway.Query{})
	if err != nil {
		return 0, mapErr(err)
	}
	return len(rows), nil
}
