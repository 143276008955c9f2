package request

import (
	"time"

	"bloodconnect/internal/domain"
)

type LocationInput struct {
	Address   string  `json:"address" validate:"max=300"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"max=100"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type CreateRequest struct {
	BloodGroup    domain.BloodGroup `json:"blood_group" validate:"required,blood_group"`
	UnitsNeeded   int               `json:"units_needed" validate:"required,gte=1,lte=50"`
	Location      LocationInput     `json:"location"`
	Urgency       domain.Urgency    `json:"urgency" validate:"omitempty,oneof=low medium high emergency"`
	HospitalID    string            `json:"hospital_id"`
	Notes         string            `json:"notes" validate:"max=2000"`
	ScheduledDate *time.Time        `json:"scheduled_date"`
}

// UpdateRequest is a partial update. Status changes here bypass the
// transition rules; use the complete and cancel endpoints for those.
type UpdateRequest struct {
	UnitsNeeded   *int                  `json:"units_needed" validate:"omitempty,gte=1,lte=50"`
	Location      *LocationInput        `json:"location"`
	Urgency       *domain.Urgency       `json:"urgency" validate:"omitempty,oneof=low medium high emergency"`
	Status        *domain.RequestStatus `json:"status" validate:"omitempty,oneof=pending matched completed cancelled"`
	HospitalID    *string               `json:"hospital_id"`
	Notes         *string               `json:"notes" validate:"omitempty,max=2000"`
	ScheduledDate *time.Time            `json:"scheduled_date"`
}

type ListQuery struct {
	Status     string `form:"status"`
	BloodGroup string `form:"blood_group"`
	City       string `form:"city"`
	Urgency    string `form:"urgency"`
	HospitalID string `form:"hospital_id"`
	Mine       bool   `form:"mine"`
	Limit      int    `form:"limit"`
}
