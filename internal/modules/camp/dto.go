package camp

import "bloodconnect/internal/domain"

type LocationInput struct {
	Address   string  `json:"address" validate:"max=300"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"max=100"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type CreateCampRequest struct {
	Title          string        `json:"title" validate:"required,min=3,max=200"`
	Description    string        `json:"description" validate:"max=2000"`
	Date           string        `json:"date" validate:"required,camp_date"`
	Time           string        `json:"time" validate:"required,camp_time"`
	Location       LocationInput `json:"location"`
	SlotsAvailable int           `json:"slots_available" validate:"required,gte=1,lte=10000"`
}

type StatusRequest struct {
	Status domain.CampStatus `json:"status" validate:"required,oneof=upcoming ongoing completed cancelled"`
}

type ListQuery struct {
	HospitalID string `form:"hospital_id"`
	City       string `form:"city"`
	Status     string `form:"status"`
	FromDate   string `form:"from"`
	Mine       bool   `form:"mine"`
	Limit      int    `form:"limit"`
}
