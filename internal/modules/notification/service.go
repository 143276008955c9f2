package notification

import (
	"context"
	"fmt"
	"strings"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/degrade"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo   NotificationRepository
	feed   Publisher
	logger *zap.Logger
}

// NewService wires the store and an optional live feed (nil disables it).
func NewService(repo NotificationRepository, feed Publisher, logger *zap.Logger) *Service {
	return &Service{repo: repo, feed: feed, logger: logger}
}

func validateDraft(d *domain.NotificationDraft) error {
	d.UserID = strings.TrimSpace(d.UserID)
	d.Title = strings.TrimSpace(d.Title)
	if d.UserID == "" {
		return domain.Validationf("user_id is required")
	}
	if d.Title == "" {
		return domain.Validationf("title is required")
	}
	if !d.Type.Valid() {
		return domain.Validationf("unknown notification type %q", d.Type)
	}
	if d.Priority == "" {
		d.Priority = domain.PriorityMedium
	}
	if !d.Priority.Valid() {
		return domain.Validationf("unknown priority %q", d.Priority)
	}
	return nil
}

// Send stores one unread notification and pushes it to the owner's live
// sockets.
func (s *Service) Send(ctx context.Context, d domain.NotificationDraft) (*domain.Notification, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	n := &domain.Notification{
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      d.Type,
		Priority:  d.Priority,
		ActionURL: d.ActionURL,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.feed != nil {
		s.feed.Publish(n.UserID, *n)
	}
	return n, nil
}

// SendBulk validates every draft before storing any of them. Storage stops
// at the first failure; drafts stored before it stay stored.
func (s *Service) SendBulk(ctx context.Context, drafts []domain.NotificationDraft) ([]domain.Notification, error) {
	for i := range drafts {
		if err := validateDraft(&drafts[i]); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
	}
	out := make([]domain.Notification, 0, len(drafts))
	for _, d := range drafts {
		n, err := s.Send(ctx, d)
		if err != nil {
			return out, err
		}
		out = append(out, *n)
	}
	return out, nil
}

// Notify is the best-effort entry point for other modules: failures are
// logged and never returned.
func (s *Service) Notify(ctx context.Context, drafts ...domain.NotificationDraft) {
	for _, d := range drafts {
		if _, err := s.Send(ctx, d); err != nil {
			s.logger.Warn("notification not delivered",
				zap.String("user_id", d.UserID),
				zap.String("type", string(d.Type)),
				zap.Error(err),
			)
		}
	}
}

// Get returns the notification if userID owns it. Other users get
// ErrNotFound so ids of foreign notifications are not disclosed.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, domain.NotFoundf("notification %s", id)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	return degrade.List(s.logger, "notifications.list", items, err)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	return degrade.Count(s.logger, "notifications.unread_count", n, err)
}

func (s *Service) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Preferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	return s.repo.GetPreferences(ctx, userID)
}

// UpdatePreferences applies the non-nil fields of req on top of the current
// preferences. The values are stored for clients only; no transport reads
// them.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, req UpdatePreferencesRequest) (*domain.NotificationPreferences, error) {
	p, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.SMS != nil {
		p.SMS = *req.SMS
	}
	if req.Push != nil {
		p.Push = *req.Push
	}
	if req.EmergencyOnly != nil {
		p.EmergencyOnly = *req.EmergencyOnly
	}
	p.UserID = userID
	if err := s.repo.SavePreferences(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
