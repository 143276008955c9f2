package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Donor is a user profile extended with donation data. The donor id equals
// the owning user id.
type Donor struct {
	User
	BloodGroup        BloodGroup       `json:"blood_group"`
	Age               int              `json:"age"`
	Gender            Gender           `json:"gender"`
	Location          Location         `json:"location"`
	LastDonationDate  *time.Time       `json:"last_donation_date,omitempty"`
	Available         bool             `json:"available"`
	MedicalConditions []string         `json:"medical_conditions"`
	Rating            *float64         `json:"rating,omitempty"`
	DonationHistory   []DonationRecord `json:"donation_history,omitempty"`
}

// DaysSinceLastDonation reports whole days elapsed since the last donation.
// ok is false when the donor has never donated.
func (d *Donor) DaysSinceLastDonation(now time.Time) (days int, ok bool) {
	if d.LastDonationDate == nil {
		return 0, false
	}
	return int(now.Sub(*d.LastDonationDate).Hours() / 24), true
}

// DonorFilter narrows a directory search. Zero fields are ignored.
type DonorFilter struct {
	BloodGroup               BloodGroup
	BloodGroups              []BloodGroup
	City                     string
	Available                *bool
	MinDaysSinceLastDonation *int
}

// DonationRecord is one completed donation.
type DonationRecord struct {
	ID          string     `json:"id"`
	DonorID     string     `json:"donor_id"`
	RecipientID string     `json:"recipient_id,omitempty"`
	HospitalID  string     `json:"hospital_id"`
	CampID      string     `json:"camp_id,omitempty"`
	BloodGroup  BloodGroup `json:"blood_group"`
	Units       int        `json:"units"`
	DonatedAt   time.Time  `json:"donated_at"`
	Notes       string     `json:"notes,omitempty"`
	Verified    bool       `json:"verified"`
	CreatedAt   time.Time  `json:"created_at"`
}
