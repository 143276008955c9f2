package notification

import "bloodconnect/internal/domain"

type UpdatePreferencesRequest struct {
	Email         *bool `json:"email"`
	SMS           *bool `json:"sms"`
	Push          *bool `json:"push"`
	EmergencyOnly *bool `json:"emergency_only"`
}

// SendRequest is used by the admin notify endpoint.
type SendRequest struct {
	Title     string                  `json:"title" validate:"required,max=200"`
	Message   string                  `json:"message" validate:"required,max=2000"`
	Type      domain.NotificationType `json:"type" validate:"omitempty,oneof=donation_request camp_reminder donor_match emergency admin"`
	Priority  domain.Priority         `json:"priority" validate:"omitempty,oneof=low medium high"`
	ActionURL string                  `json:"action_url" validate:"omitempty,max=500"`
}

// Draft converts the request into a draft for userID. Type defaults to
// admin.
func (r SendRequest) Draft(userID string) domain.NotificationDraft {
	t := r.Type
	if t == "" {
		t = domain.NotificationAdmin
	}
	return domain.NotificationDraft{
		UserID:    userID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      t,
		Priority:  r.Priority,
		ActionURL: r.ActionURL,
	}
}
