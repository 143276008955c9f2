package notification

import (
	"context"

	"bloodconnect/internal/domain"
)

// NotificationRepository is the subset of repository.NotificationRepository
// the service uses.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	SavePreferences(ctx context.Context, p *domain.NotificationPreferences) error
}

// Publisher pushes a stored notification to live clients.
type Publisher interface {
	Publish(userID string, n domain.Notification)
}
