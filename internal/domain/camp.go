package domain

import (
	"slices"
	"time"
)

type CampStatus string

const (
	CampUpcoming  CampStatus = "upcoming"
	CampOngoing   CampStatus = "ongoing"
	CampCompleted CampStatus = "completed"
	CampCancelled CampStatus = "cancelled"
)

func (s CampStatus) Valid() bool {
	switch s {
	case CampUpcoming, CampOngoing, CampCompleted, CampCancelled:
		return true
	}
	return false
}

// Open reports whether donors may still register.
func (s CampStatus) Open() bool {
	return s == CampUpcoming || s == CampOngoing
}

const (
	CampDateLayout = "2006-01-02"
	CampTimeLayout = "15:04"
)

// BloodCamp is a scheduled collection event. SlotsBooked never exceeds
// SlotsAvailable and equals len(RegisteredDonors).
type BloodCamp struct {
	ID               string     `json:"id"`
	HospitalID       string     `json:"hospital_id"`
	HospitalName     string     `json:"hospital_name"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	Location         Location   `json:"location"`
	SlotsAvailable   int        `json:"slots_available"`
	SlotsBooked      int        `json:"slots_booked"`
	RegisteredDonors []string   `json:"registered_donors"`
	Status           CampStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (c *BloodCamp) Full() bool {
	return c.SlotsBooked >= c.SlotsAvailable
}

func (c *BloodCamp) HasDonor(donorID string) bool {
	return slices.Contains(c.RegisteredDonors, donorID)
}

type CampFilter struct {
	HospitalID string
	City       string
	Status     CampStatus
	FromDate   string
	Limit      int
}
