package admin

import "bloodconnect/internal/domain"

type UserListQuery struct {
	Role   string `form:"role"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
}

type SetStatusRequest struct {
	Status domain.UserStatus `json:"status" validate:"required,oneof=active suspended"`
}

type VerificationRequest struct {
	Status domain.VerificationStatus `json:"status" validate:"required,oneof=pending verified rejected"`
}

type CityCount struct {
	City   string `json:"city"`
	Donors int    `json:"donors"`
}

// Analytics is the admin overview computed from stored data.
type Analytics struct {
	TotalDonors       int                               `json:"total_donors"`
	AvailableDonors   int                               `json:"available_donors"`
	BloodGroups       map[domain.BloodGroup]int         `json:"blood_group_distribution"`
	RequestsByStatus  map[domain.RequestStatus]int      `json:"requests_by_status"`
	CampsByStatus     map[domain.CampStatus]int         `json:"camps_by_status"`
	TotalDonations    int                               `json:"total_donations"`
	UnitsCollected    int                               `json:"units_collected"`
	TopCities         []CityCount                       `json:"top_cities"`
	HospitalsByStatus map[domain.VerificationStatus]int `json:"hospitals_by_status"`
}
