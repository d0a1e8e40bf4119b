package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("notification not found")

// Event types pushed over the live channel.
const (
	EventCreated = "notification.created"
	EventCount   = "notification.count"
)

// EventPublisher pushes an event to a websocket topic. The hub satisfies it
// through an adapter; a nil publisher disables live push entirely.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload interface{}) error
}

type Service struct {
	repo      NotificationRepository
	publisher EventPublisher
	logger    zerolog.Logger
}

func NewService(repo NotificationRepository, publisher EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Notify persists a notification and pushes it to the recipient's topic along
// with their recomputed unread count. Push failures never fail the caller;
// the stored record is the source of truth and the client catches up on the
// next fetch.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) error {
	n := &Notification{UserID: userID, Type: ntype, Title: title, Body: body}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal notification data: %w", err)
		}
		n.Data = raw
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	s.push(ctx, userID, EventCreated, n)
	s.pushCount(ctx, userID)
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.pushCount(ctx, userID)
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushCount(ctx, userID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	err := s.repo.Delete(ctx, id, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	deleted, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushCount(ctx, userID)
	return deleted, nil
}

func (s *Service) push(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	topic := "user:" + userID.String()
	if err := s.publisher.Publish(ctx, topic, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("event", eventType).Msg("push failed")
	}
}

func (s *Service) pushCount(ctx context.Context, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("unread count failed")
		return
	}
	s.push(ctx, userID, EventCount, map[string]int{"count": count})
}
