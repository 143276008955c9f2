package repository

import (
	"context"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"
)

const TableDonors = "donors"

// DonorRepository stores donor profiles. A donor row shares its id with the
// user row it extends.
type DonorRepository struct {
	gw    gateway.Gateway
	users *UserRepository
}

func NewDonorRepository(gw gateway.Gateway, users *UserRepository) *DonorRepository {
	return &DonorRepository{gw: gw, users: users}
}

type donorModel struct {
	ID                string     `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	BloodGroup        string     `gorm:"column:blood_group;index;not null" json:"blood_group"`
	Age               int        `gorm:"column:age" json:"age"`
	Gender            string     `gorm:"column:gender" json:"gender"`
	Address           string     `gorm:"column:address" json:"address"`
	City              string     `gorm:"column:city;index" json:"city"`
	State             string     `gorm:"column:state" json:"state"`
	Latitude          float64    `gorm:"column:latitude" json:"latitude"`
	Longitude         float64    `gorm:"column:longitude" json:"longitude"`
	LastDonationDate  *time.Time `gorm:"column:last_donation_date" json:"last_donation_date"`
	Available         bool       `gorm:"column:available;index" json:"available"`
	MedicalConditions StringList `gorm:"column:medical_conditions" json:"medical_conditions"`
	Rating            *float64   `gorm:"column:rating" json:"rating"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (donorModel) TableName() string { return TableDonors }

func toDomainDonor(m donorModel, u *domain.User) domain.Donor {
	d := domain.Donor{
		BloodGroup: domain.BloodGroup(m.BloodGroup),
		Age:        m.Age,
		Gender:     domain.Gender(m.Gender),
		Location: domain.Location{
			Address:   m.Address,
			City:      m.City,
			State:     m.State,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		},
		LastDonationDate:  m.LastDonationDate,
		Available:         m.Available,
		MedicalConditions: orEmpty(m.MedicalConditions),
		Rating:            m.Rating,
	}
	if u != nil {
		d.User = *u
	}
	d.ID = m.ID
	return d
}

func (r *DonorRepository) Create(ctx context.Context, d *domain.Donor) error {
	now := utcNow()
	row, err := encodeRow(donorModel{
		ID:                d.ID,
		BloodGroup:        string(d.BloodGroup),
		Age:               d.Age,
		Gender:            string(d.Gender),
		Address:           d.Location.Address,
		City:              d.Location.City,
		State:             d.Location.State,
		Latitude:          d.Location.Latitude,
		Longitude:         d.Location.Longitude,
		LastDonationDate:  d.LastDonationDate,
		Available:         d.Available,
		MedicalConditions: StringList(orEmpty(d.MedicalConditions)),
		Rating:            d.Rating,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableDonors, row)
	return mapErr(err)
}

func (r *DonorRepository) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	rows, err := r.gw.Select(ctx, TableDonors, gateway.Where(gateway.Eq("id", id)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("donor %s", id)
	}
	var m donorModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := toDomainDonor(m, u)
	return &d, nil
}

// Search applies the storage-level part of f: blood group(s), city
// substring and availability. Results are ordered by creation time.
func (r *DonorRepository) Search(ctx context.Context, f domain.DonorFilter) ([]domain.Donor, error) {
	q := gateway.Query{}
	if f.BloodGroup != "" {
		q = q.And(gateway.Eq("blood_group", string(f.BloodGroup)))
	}
	if f.BloodGroups != nil {
		groups := make([]string, len(f.BloodGroups))
		for i, g := range f.BloodGroups {
			groups[i] = string(g)
		}
		q = q.And(gateway.In("blood_group", groups))
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.And(gateway.ILike("city", city))
	}
	if f.Available != nil {
		q = q.And(gateway.Eq("available", *f.Available))
	}

	rows, err := r.gw.Select(ctx, TableDonors, q.OrderBy("created_at", false))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[donorModel](rows)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []domain.Donor{}, nil
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

	out := make([]domain.Donor, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainDonor(m, byID[m.ID]))
	}
	return out, nil
}

type DonorPatch struct {
	BloodGroup        *domain.BloodGroup
	Age               *int
	Gender            *domain.Gender
	Location          *domain.Location
	Available         *bool
	MedicalConditions []string
	LastDonationDate  *time.Time
}

func (r *DonorRepository) Update(ctx context.Context, id string, p DonorPatch) (*domain.Donor, error) {
	patch := gateway.Row{"updated_at": utcNow()}
	if p.BloodGroup != nil {
		patch["blood_group"] = string(*p.BloodGroup)
	}
	if p.Age != nil {
		patch["age"] = *p.Age
	}
	if p.Gender != nil {
		patch["gender"] = string(*p.Gender)
	}
	if p.Location != nil {
		patch["address"] = p.Location.Address
		patch["city"] = p.Location.City
		patch["state"] = p.Location.State
		patch["latitude"] = p.Location.Latitude
		patch["longitude"] = p.Location.Longitude
	}
	if p.Available != nil {
		patch["available"] = *p.Available
	}
	if p.MedicalConditions != nil {
		patch["medical_conditions"] = StringList(p.MedicalConditions)
	}
	if p.LastDonationDate != nil {
		patch["last_donation_date"] = p.LastDonationDate.UTC()
	}
	if _, err := r.gw.Update(ctx, TableDonors, id, patch); err != nil {
		return nil, mapErr(err)
	}
	return r.GetByID(ctx, id)
}
