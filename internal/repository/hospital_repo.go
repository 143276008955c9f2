package repository

import (
	"context"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"
)

const TableHospitals = "hospitals"

type HospitalRepository struct {
	gw    gateway.Gateway
	users *UserRepository
}

func NewHospitalRepository(gw gateway.Gateway, users *UserRepository) *HospitalRepository {
	return &HospitalRepository{gw: gw, users: users}
}

type hospitalModel struct {
	ID                 string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Address            string    `gorm:"column:address" json:"address"`
	City               string    `gorm:"column:city;index" json:"city"`
	State              string    `gorm:"column:state" json:"state"`
	Latitude           float64   `gorm:"column:latitude" json:"latitude"`
	Longitude          float64   `gorm:"column:longitude" json:"longitude"`
	ContactPerson      string    `gorm:"column:contact_person" json:"contact_person"`
	LicenseNumber      string    `gorm:"column:license_number" json:"license_number"`
	VerificationStatus string    `gorm:"column:verification_status;index" json:"verification_status"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (hospitalModel) TableName() string { return TableHospitals }

func toDomainHospital(m hospitalModel, u *domain.User) domain.Hospital {
	h := domain.Hospital{
		ID: m.ID,
		Location: domain.Location{
			Address:   m.Address,
			City:      m.City,
			State:     m.State,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		},
		ContactPerson:      m.ContactPerson,
		LicenseNumber:      m.LicenseNumber,
		VerificationStatus: domain.VerificationStatus(m.VerificationStatus),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if u != nil {
		h.Name = u.Name
		h.Email = u.Email
		h.Phone = u.Phone
	}
	return h
}

func (r *HospitalRepository) Create(ctx context.Context, h *domain.Hospital) error {
	now := utcNow()
	if h.VerificationStatus == "" {
		h.VerificationStatus = domain.VerificationPending
	}
	h.CreatedAt, h.UpdatedAt = now, now
	row, err := encodeRow(hospitalModel{
		ID:                 h.ID,
		Address:            h.Location.Address,
		City:               h.Location.City,
		State:              h.Location.State,
		Latitude:           h.Location.Latitude,
		Longitude:          h.Location.Longitude,
		ContactPerson:      h.ContactPerson,
		LicenseNumber:      h.LicenseNumber,
		VerificationStatus: string(h.VerificationStatus),
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableHospitals, row)
	return mapErr(err)
}

func (r *HospitalRepository) GetByID(ctx context.Context, id string) (*domain.Hospital, error) {
	rows, err := r.gw.Select(ctx, TableHospitals, gateway.Where(gateway.Eq("id", id)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("hospital %s", id)
	}
	var m hospitalModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h := toDomainHospital(m, u)
	return &h, nil
}

func (r *HospitalRepository) List(ctx context.Context, status domain.VerificationStatus) ([]domain.Hospital, error) {
	q := gateway.Query{}
	if status != "" {
		q = q.And(gateway.Eq("verification_status", string(status)))
	}
	rows, err := r.gw.Select(ctx, TableHospitals, q.OrderBy("created_at", true))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[hospitalModel](rows)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	users, err := r.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]domain.Hospital, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainHospital(m, byID[m.ID]))
	}
	return out, nil
}

func (r *HospitalRepository) SetVerification(ctx context.Context, id string, status domain.VerificationStatus) (*domain.Hospital, error) {
	_, err := r.gw.Update(ctx, TableHospitals, id, gateway.Row{
		"verification_status": string(status),
		"updated_at":          utcNow(),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return r.GetByID(ctx, id)
}
