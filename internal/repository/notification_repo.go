package repository

import (
	"context"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const (
	TableNotifications           = "notifications"
	TableNotificationPreferences = "notification_preferences"
)

type NotificationRepository struct {
	gw gateway.Gateway
}

func NewNotificationRepository(gw gateway.Gateway) *NotificationRepository {
	return &NotificationRepository{gw: gw}
}

type notificationModel struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Message   string    `gorm:"column:message" json:"message"`
	Type      string    `gorm:"column:type;not null" json:"type"`
	Priority  string    `gorm:"column:priority;not null" json:"priority"`
	IsRead    bool      `gorm:"column:is_read;index" json:"is_read"`
	ActionURL string    `gorm:"column:action_url" json:"action_url"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (notificationModel) TableName() string { return TableNotifications }

type preferencesModel struct {
	ID            string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	EmailEnabled  bool      `gorm:"column:email_enabled" json:"email_enabled"`
	SMSEnabled    bool      `gorm:"column:sms_enabled" json:"sms_enabled"`
	PushEnabled   bool      `gorm:"column:push_enabled" json:"push_enabled"`
	EmergencyOnly bool      `gorm:"column:emergency_only" json:"emergency_only"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (preferencesModel) TableName() string { return TableNotificationPreferences }

func toDomainNotification(m notificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Message:   m.Message,
		Type:      domain.NotificationType(m.Type),
		Priority:  domain.Priority(m.Priority),
		Read:      m.IsRead,
		ActionURL: m.ActionURL,
		CreatedAt: m.CreatedAt,
	}
}

// Create assigns id and creation time to n and stores it unread.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = uuid.NewString()
	n.CreatedAt = utcNow()
	n.Read = false
	row, err := encodeRow(notificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Priority:  string(n.Priority),
		IsRead:    false,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableNotifications, row)
	return mapErr(err)
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	rows, err := r.gw.Select(ctx, TableNotifications, gateway.Where(gateway.Eq("id", id)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("notification %s", id)
	}
	var m notificationModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	n := toDomainNotification(m)
	return &n, nil
}

// ListByUser returns a user's notifications newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := gateway.Where(gateway.Eq("user_id", userID))
	if unreadOnly {
		q = q.And(gateway.Eq("is_read", false))
	}
	rows, err := r.gw.Select(ctx, TableNotifications, q.OrderBy("created_at", true).WithLimit(limit))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[notificationModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainNotification(m))
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	rows, err := r.gw.Select(ctx, TableNotifications, gateway.Where(
		gateway.Eq("user_id", userID),
		gateway.Eq("is_read", false),
	))
	if err != nil {
		return 0, mapErr(err)
	}
	return int64(len(rows)), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	row, err := r.gw.Update(ctx, TableNotifications, id, gateway.Row{"is_read": true})
	if err != nil {
		return nil, mapErr(err)
	}
	var m notificationModel
	if err := decodeRow(row, &m); err != nil {
		return nil, err
	}
	n := toDomainNotification(m)
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := r.gw.UpdateWhere(ctx, TableNotifications, gateway.Where(
		gateway.Eq("user_id", userID),
		gateway.Eq("is_read", false),
	), gateway.Row{"is_read": true})
	return n, mapErr(err)
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return mapErr(r.gw.Delete(ctx, TableNotifications, id))
}

// GetPreferences returns the stored preferences or the defaults.
func (r *NotificationRepository) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	rows, err := r.gw.Select(ctx, TableNotificationPreferences, gateway.Where(gateway.Eq("id", userID)).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		p := domain.DefaultPreferences(userID)
		return &p, nil
	}
	var m preferencesModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	return &domain.NotificationPreferences{
		UserID:        m.ID,
		Email:         m.EmailEnabled,
		SMS:           m.SMSEnabled,
		Push:          m.PushEnabled,
		EmergencyOnly: m.EmergencyOnly,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

// SavePreferences upserts p keyed by user id.
func (r *NotificationRepository) SavePreferences(ctx context.Context, p *domain.NotificationPreferences) error {
	p.UpdatedAt = utcNow()
	fields := gateway.Row{
		"email_enabled":  p.Email,
		"sms_enabled":    p.SMS,
		"push_enabled":   p.Push,
		"emergency_only": p.EmergencyOnly,
		"updated_at":     p.UpdatedAt,
	}
	_, err := r.gw.Update(ctx, TableNotificationPreferences, p.UserID, fields)
	if err == nil {
		return nil
	}
	if err = mapErr(err); !isNotFound(err) {
		return err
	}

	row, err := encodeRow(preferencesModel{
		ID:            p.UserID,
		EmailEnabled:  p.Email,
		SMSEnabled:    p.SMS,
		PushEnabled:   p.Push,
		EmergencyOnly: p.EmergencyOnly,
		UpdatedAt:     p.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if _, err := r.gw.Insert(ctx, TableNotificationPreferences, row); err != nil {
		err = mapErr(err)
		if !isConflict(err) {
			return err
		}
		// lost a race with another insert; apply ours on top
		_, err = r.gw.Update(ctx, TableNotificationPreferences, p.UserID, fields)
		return mapErr(err)
	}
	return nil
}
