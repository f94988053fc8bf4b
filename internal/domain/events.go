package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
	// Commit acknowledges a consumed message. Nil for messages that are
	// only published or come from a source without offsets.
	Commit func(ctx context.Context) error
}

// Ack commits m when the source tracks offsets.
func (m Message) Ack(ctx context.Context) error {
	if m.Commit == nil {
		return nil
	}
	return m.Commit(ctx)
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

// InvitationRequested is consumed by the e-mail dispatcher, which renders
// ShareURL into the outbound invitation.
type InvitationRequested struct {
	ReferralID    string    `json:"referral_id"`
	ReferrerID    string    `json:"referrer_id"`
	ReferrerName  string    `json:"referrer_name"`
	ReferredEmail string    `json:"referred_email"`
	ShareURL      string    `json:"share_url,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// EventPublisher delivers outbound effects after the owning transaction commits.
type EventPublisher interface {
	PublishNotifications(ctx context.Context, notifications ...*Notification) error
	PublishInvitation(ctx context.Context, event InvitationRequested) error
}
