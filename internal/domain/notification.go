package domain

import "time"

type NotificationType string

const (
	NotificationDonationRequest NotificationType = "donation_request"
	NotificationCampReminder    NotificationType = "camp_reminder"
	NotificationDonorMatch      NotificationType = "donor_match"
	NotificationEmergency       NotificationType = "emergency"
	NotificationAdmin           NotificationType = "admin"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationDonationRequest, NotificationCampReminder, NotificationDonorMatch,
		NotificationEmergency, NotificationAdmin:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// PriorityForUrgency maps request urgency onto notification priority.
func PriorityForUrgency(u Urgency) Priority {
	switch u {
	case UrgencyEmergency, UrgencyHigh:
		return PriorityHigh
	case UrgencyLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Read      bool             `json:"read"`
	ActionURL string           `json:"action_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationDraft is what producers hand to the notification sink.
type NotificationDraft struct {
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	Priority  Priority
	ActionURL string
}

type NotificationPreferences struct {
	UserID        string    `json:"user_id"`
	Email         bool      `json:"email"`
	SMS           bool      `json:"sms"`
	Push          bool      `json:"push"`
	EmergencyOnly bool      `json:"emergency_only"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultPreferences is used until a user saves their own.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{UserID: userID, Email: true, SMS: false, Push: true}
}
