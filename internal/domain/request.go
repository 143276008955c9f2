package domain

import "time"

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestMatched   RequestStatus = "matched"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestMatched, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further matching may happen.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

// CanTransition allows pending->matched, matched->completed and any->cancelled.
func CanTransition(from, to RequestStatus) bool {
	switch to {
	case RequestCancelled:
		return from.Valid()
	case RequestMatched:
		return from == RequestPending
	case RequestCompleted:
		return from == RequestMatched
	}
	return false
}

// DonationRequest is a recipient's ask for blood. MatchedDonors is non-empty
// only while Status is matched or completed.
type DonationRequest struct {
	ID            string        `json:"id"`
	RecipientID   string        `json:"recipient_id"`
	RecipientName string        `json:"recipient_name"`
	BloodGroup    BloodGroup    `json:"blood_group"`
	UnitsNeeded   int           `json:"units_needed"`
	Location      Location      `json:"location"`
	Urgency       Urgency       `json:"urgency"`
	Status        RequestStatus `json:"status"`
	MatchedDonors []string      `json:"matched_donors"`
	HospitalID    string        `json:"hospital_id,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	ScheduledDate *time.Time    `json:"scheduled_date,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type RequestFilter struct {
	RecipientID string
	HospitalID  string
	Status      RequestStatus
	BloodGroup  BloodGroup
	City        string
	Urgency     Urgency
	Limit       int
}
