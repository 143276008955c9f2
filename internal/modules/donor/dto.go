package donor

import (
	"time"

	"bloodconnect/internal/domain"
)

// SearchQuery is bound from the query string of GET /donors.
type SearchQuery struct {
	BloodGroup               string `form:"blood_group"`
	City                     string `form:"city"`
	Available                *bool  `form:"available"`
	MinDaysSinceLastDonation *int   `form:"min_days_since_last_donation"`
}

type LocationInput struct {
	Address   string  `json:"address" validate:"max=300"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"max=100"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type UpdateProfileRequest struct {
	BloodGroup        *domain.BloodGroup `json:"blood_group" validate:"omitempty,blood_group"`
	Age               *int               `json:"age" validate:"omitempty,gte=18,lte=65"`
	Gender            *domain.Gender     `json:"gender" validate:"omitempty,oneof=male female other"`
	Location          *LocationInput     `json:"location"`
	MedicalConditions []string           `json:"medical_conditions" validate:"omitempty,max=20,dive,max=200"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type RecordDonationRequest struct {
	DonorID     string     `json:"donor_id" validate:"required"`
	RecipientID string     `json:"recipient_id"`
	CampID      string     `json:"camp_id"`
	Units       int        `json:"units" validate:"required,gte=1,lte=10"`
	DonatedAt   *time.Time `json:"donated_at"`
	Notes       string     `json:"notes" validate:"max=1000"`
}

type ContactRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}
