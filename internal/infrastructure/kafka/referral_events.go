package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
)

type NotificationEvent struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToNotificationEvent(n *domain.Notification) NotificationEvent {
	return NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Kind:           string(n.Kind),
		Title:          n.Title,
		Body:           n.Body,
		CreatedAt:      n.CreatedAt,
	}
}

// ReferralEventPublisher serializes referral events onto their topics.
type ReferralEventPublisher struct {
	publisher         domain.PublisherPort
	notificationTopic string
	invitationTopic   string
}

func NewReferralEventPublisher(publisher domain.PublisherPort, notificationTopic, invitationTopic string) *ReferralEventPublisher {
	return &ReferralEventPublisher{
		publisher:         publisher,
		notificationTopic: notificationTopic,
		invitationTopic:   invitationTopic,
	}
}

func (p *ReferralEventPublisher) PublishNotifications(ctx context.Context, notifications ...*domain.Notification) error {
	msgs := make([]domain.Message, 0, len(notifications))
	for _, n := range notifications {
		v, err := json.Marshal(ToNotificationEvent(n))
		if err != nil {
			return err
		}
		msgs = append(msgs, domain.Message{Key: []byte(n.UserID), Value: v})
	}
	return p.publisher.Publish(ctx, p.notificationTopic, msgs...)
}

func (p *ReferralEventPublisher) PublishInvitation(ctx context.Context, event domain.InvitationRequested) error {
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.invitationTopic, domain.Message{Key: []byte(event.ReferralID), Value: v})
}

// LogEventPublisher stands in when kafka is disabled.
type LogEventPublisher struct {
	log *slog.Logger
}

func NewLogEventPublisher(log *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{log: log}
}

func (p *LogEventPublisher) PublishNotifications(ctx context.Context, notifications ...*domain.Notification) error {
	for _, n := range notifications {
		p.log.Debug("notification",
			slog.String("user_id", n.UserID),
			slog.String("kind", string(n.Kind)),
			slog.String("title", n.Title),
		)
	}
	return nil
}

func (p *LogEventPublisher) PublishInvitation(ctx context.Context, event domain.InvitationRequested) error {
	p.log.Info("invitation requested",
		slog.String("referral_id", event.ReferralID),
		slog.String("referrer_id", event.ReferrerID),
	)
	return nil
}
