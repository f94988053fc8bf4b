package usecase

import (
	"context"

	"github.com/brickfoundation/referral-service/internal/domain"
)

type NotificationUsecase interface {
	Notifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

type DefaultNotificationUsecase struct {
	store domain.Store
}

func NewDefaultNotificationUsecase(store domain.Store) *DefaultNotificationUsecase {
	return &DefaultNotificationUsecase{store: store}
}

func (uc *DefaultNotificationUsecase) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	return uc.store.Repos().Notifications.ListNotifications(ctx, userID, unreadOnly)
}

func (uc *DefaultNotificationUsecase) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return uc.store.Repos().Notifications.MarkNotificationRead(ctx, notificationID)
}
