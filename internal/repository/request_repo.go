package repository

import (
	"context"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const TableRequests = "donation_requests"

type RequestRepository struct {
	gw gateway.Gateway
}

func NewRequestRepository(gw gateway.Gateway) *RequestRepository {
	return &RequestRepository{gw: gw}
}

type requestModel struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	RecipientID   string     `gorm:"column:recipient_id;type:varchar(36);index;not null" json:"recipient_id"`
	RecipientName string     `gorm:"column:recipient_name" json:"recipient_name"`
	BloodGroup    string     `gorm:"column:blood_group;index;not null" json:"blood_group"`
	UnitsNeeded   int        `gorm:"column:units_needed;not null" json:"units_needed"`
	Address       string     `gorm:"column:address" json:"address"`
	City          string     `gorm:"column:city;index" json:"city"`
	State         string     `gorm:"column:state" json:"state"`
	Latitude      float64    `gorm:"column:latitude" json:"latitude"`
	Longitude     float64    `gorm:"column:longitude" json:"longitude"`
	Urgency       string     `gorm:"column:urgency;not null" json:"urgency"`
	Status        string     `gorm:"column:status;index;not null" json:"status"`
	MatchedDonors StringList `gorm:"column:matched_donors" json:"matched_donors"`
	HospitalID    *string    `gorm:"column:hospital_id;type:varchar(36)" json:"hospital_id"`
	Notes         string     `gorm:"column:notes" json:"notes"`
	ScheduledDate *time.Time `gorm:"column:scheduled_date" json:"scheduled_date"`
	CreatedAt     time.Time  `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (requestModel) TableName() string { return TableRequests }

func toDomainRequest(m requestModel) domain.DonationRequest {
	return domain.DonationRequest{
		ID:            m.ID,
		RecipientID:   m.RecipientID,
		RecipientName: m.RecipientName,
		BloodGroup:    domain.BloodGroup(m.BloodGroup),
		UnitsNeeded:   m.UnitsNeeded,
		Location: domain.Location{
			Address:   m.Address,
			City:      m.City,
			State:     m.State,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		},
		Urgency:       domain.Urgency(m.Urgency),
		Status:        domain.RequestStatus(m.Status),
		MatchedDonors: orEmpty(m.MatchedDonors),
		HospitalID:    strVal(m.HospitalID),
		Notes:         m.Notes,
		ScheduledDate: m.ScheduledDate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Create assigns an id and timestamps to req and stores it.
func (r *RequestRepository) Create(ctx context.Context, req *domain.DonationRequest) error {
	now := utcNow()
	req.ID = uuid.NewString()
	req.CreatedAt, req.UpdatedAt = now, now
	req.MatchedDonors = orEmpty(req.MatchedDonors)

	row, err := encodeRow(requestModel{
		ID:            req.ID,
		RecipientID:   req.RecipientID,
		RecipientName: req.RecipientName,
		BloodGroup:    string(req.BloodGroup),
		UnitsNeeded:   req.UnitsNeeded,
		Address:       req.Location.Address,
		City:          req.Location.City,
		State:         req.Location.State,
		Latitude:      req.Location.Latitude,
		Longitude:     req.Location.Longitude,
		Urgency:       string(req.Urgency),
		Status:        string(req.Status),
		MatchedDonors: StringList(req.MatchedDonors),
		HospitalID:    strPtr(req.HospitalID),
		Notes:         req.Notes,
		ScheduledDate: req.ScheduledDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableRequests, row)
	return mapErr(err)
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	rows, err := r.gw.Select(ctx, TableRequests, gateway.Where(gateway.Eq("id", id)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("request %s", id)
	}
	var m requestModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	req := toDomainRequest(m)
	return &req, nil
}

// List returns requests newest first.
func (r *RequestRepository) List(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error) {
	q := gateway.Query{}
	if f.RecipientID != "" {
		q = q.And(gateway.Eq("recipient_id", f.RecipientID))
	}
	if f.HospitalID != "" {
		q = q.And(gateway.Eq("hospital_id", f.HospitalID))
	}
	if f.Status != "" {
		q = q.And(gateway.Eq("status", string(f.Status)))
	}
	if f.BloodGroup != "" {
		q = q.And(gateway.Eq("blood_group", string(f.BloodGroup)))
	}
	if f.Urgency != "" {
		q = q.And(gateway.Eq("urgency", string(f.Urgency)))
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.And(gateway.ILike("city", city))
	}

	rows, err := r.gw.Select(ctx, TableRequests, q.OrderBy("created_at", true).WithLimit(f.Limit))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[requestModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DonationRequest, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainRequest(m))
	}
	return out, nil
}

// RequestPatch holds optional field changes. Nil fields are left alone.
type RequestPatch struct {
	UnitsNeeded   *int
	Location      *domain.Location
	Urgency       *domain.Urgency
	Status        *domain.RequestStatus
	MatchedDonors []string
	HospitalID    *string
	Notes         *string
	ScheduledDate *time.Time
}

func (r *RequestRepository) Update(ctx context.Context, id string, p RequestPatch) (*domain.DonationRequest, error) {
	patch := gateway.Row{"updated_at": utcNow()}
	if p.UnitsNeeded != nil {
		patch["units_needed"] = *p.UnitsNeeded
	}
	if p.Location != nil {
		patch["address"] = p.Location.Address
		patch["city"] = p.Location.City
		patch["state"] = p.Location.State
		patch["latitude"] = p.Location.Latitude
		patch["longitude"] = p.Location.Longitude
	}
	if p.Urgency != nil {
		patch["urgency"] = string(*p.Urgency)
	}
	if p.Status != nil {
		patch["status"] = string(*p.Status)
	}
	if p.MatchedDonors != nil {
		patch["matched_donors"] = StringList(p.MatchedDonors)
	}
	if p.HospitalID != nil {
		patch["hospital_id"] = strPtr(*p.HospitalID)
	}
	if p.Notes != nil {
		patch["notes"] = *p.Notes
	}
	if p.ScheduledDate != nil {
		patch["scheduled_date"] = p.ScheduledDate.UTC()
	}

	row, err := r.gw.Update(ctx, TableRequests, id, patch)
	if err != nil {
		return nil, mapErr(err)
	}
	var m requestModel
	if err := decodeRow(row, &m); err != nil {
		return nil, err
	}
	req := toDomainRequest(m)
	return &req, nil
}
