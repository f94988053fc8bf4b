package domain

import (
	"context"
	"time"
)

type NotificationKind string

const (
	NotifyTierUp     NotificationKind = "tier_up"
	NotifyReward     NotificationKind = "reward"
	NotifyActivation NotificationKind = "activation"
	NotifyReferral   NotificationKind = "referral"
)

type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}
