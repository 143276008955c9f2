package repository

import (
	"context"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const TableDonations = "donation_records"

type DonationRepository struct {
	gw gateway.Gateway
}

func NewDonationRepository(gw gateway.Gateway) *DonationRepository {
	return &DonationRepository{gw: gw}
}

type donationModel struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	DonorID     string    `gorm:"column:donor_id;type:varchar(36);index;not null" json:"donor_id"`
	RecipientID *string   `gorm:"column:recipient_id;type:varchar(36)" json:"recipient_id"`
	HospitalID  string    `gorm:"column:hospital_id;type:varchar(36);index" json:"hospital_id"`
	CampID      *string   `gorm:"column:camp_id;type:varchar(36)" json:"camp_id"`
	BloodGroup  string    `gorm:"column:blood_group;not null" json:"blood_group"`
	Units       int       `gorm:"column:units;not null" json:"units"`
	DonatedAt   time.Time `gorm:"column:donated_at" json:"donated_at"`
	Notes       string    `gorm:"column:notes" json:"notes"`
	Verified    bool      `gorm:"column:verified" json:"verified"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (donationModel) TableName() string { return TableDonations }

func toDomainDonation(m donationModel) domain.DonationRecord {
	return domain.DonationRecord{
		ID:          m.ID,
		DonorID:     m.DonorID,
		RecipientID: strVal(m.RecipientID),
		HospitalID:  m.HospitalID,
		CampID:      strVal(m.CampID),
		BloodGroup:  domain.BloodGroup(m.BloodGroup),
		Units:       m.Units,
		DonatedAt:   m.DonatedAt,
		Notes:       m.Notes,
		Verified:    m.Verified,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *DonationRepository) Create(ctx context.Context, d *domain.DonationRecord) error {
	now := utcNow()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	if d.DonatedAt.IsZero() {
		d.DonatedAt = now
	}
	row, err := encodeRow(donationModel{
		ID:          d.ID,
		DonorID:     d.DonorID,
		RecipientID: strPtr(d.RecipientID),
		HospitalID:  d.HospitalID,
		CampID:      strPtr(d.CampID),
		BloodGroup:  string(d.BloodGroup),
		Units:       d.Units,
		DonatedAt:   d.DonatedAt.UTC(),
		Notes:       d.Notes,
		Verified:    d.Verified,
		CreatedAt:   now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableDonations, row)
	return mapErr(err)
}

func (r *DonationRepository) ListByDonor(ctx context.Context, donorID string) ([]domain.DonationRecord, error) {
	return r.list(ctx, gateway.Where(gateway.Eq("donor_id", donorID)))
}

// ListAll returns every record; analytics aggregates over it.
func (r *DonationRepository) ListAll(ctx context.Context) ([]domain.DonationRecord, error) {
	return r.list(ctx, gateway.Query{})
}

func (r *DonationRepository) list(ctx context.Context, q gateway.Query) ([]domain.DonationRecord, error) {
	rows, err := r.gw.Select(ctx, TableDonations, q.OrderBy("donated_at", true))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[donationModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DonationRecord, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainDonation(m))
	}
	return out, nil
}

func (r *DonationRepository) SetVerified(ctx context.Context, id string, verified bool) (*domain.DonationRecord, error) {
	row, err := r.gw.Update(ctx, TableDonations, id, gateway.Row{"verified": verified})
	if err != nil {
		return nil, mapErr(err)
	}
	var m donationModel
	if err := decodeRow(row, &m); err != nil {
		return nil, err
	}
	d := toDomainDonation(m)
	return &d, nil
}
