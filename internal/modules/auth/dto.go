package auth

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

func (l LocationInput) Domain() domain.Location {
	return domain.Location(l)
}

// RegisterRequest covers the three self-service roles. Donor and hospital
// registrations carry a profile block; the service checks it is present.
type RegisterRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Name     string      `json:"name" validate:"required,min=2,max=120"`
	Phone    string      `json:"phone" validate:"omitempty,max=30"`
	Role     domain.Role `json:"role" validate:"required,oneof=donor recipient hospital"`

	Donor    *DonorProfileInput    `json:"donor,omitempty"`
	Hospital *HospitalProfileInput `json:"hospital,omitempty"`
}

type DonorProfileInput struct {
	BloodGroup        domain.BloodGroup `json:"blood_group" validate:"required,blood_group"`
	Age               int               `json:"age" validate:"required,gte=18,lte=65"`
	Gender            domain.Gender     `json:"gender" validate:"required,oneof=male female other"`
	Location          LocationInput     `json:"location"`
	MedicalConditions []string          `json:"medical_conditions" validate:"max=20,dive,max=200"`
	Available         *bool             `json:"available"`
}

type HospitalProfileInput struct {
	LicenseNumber string        `json:"license_number" validate:"required,max=100"`
	ContactPerson string        `json:"contact_person" validate:"required,max=120"`
	Location      LocationInput `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// MeResponse is the current user plus the role profile, when there is one.
type MeResponse struct {
	User     *domain.User     `json:"user"`
	Donor    *domain.Donor    `json:"donor,omitempty"`
	Hospital *domain.Hospital `json:"hospital,omitempty"`
}
