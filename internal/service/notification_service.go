package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/google/uuid"
)

// NotificationService 站内通知
type NotificationService struct {
	notifications store.Notifications
	now           func() time.Time
}

// NotificationSummary 列表与未读数
type NotificationSummary struct {
	Items       []db.Notification `json:"items"`
	UnreadCount int64             `json:"unread_count"`
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(notifications store.Notifications) *NotificationService {
	return &NotificationService{notifications: notifications, now: time.Now}
}

// List 返回最新在前的通知以及未读数
func (s *NotificationService) List(ctx context.Context, userID string) (*NotificationSummary, error) {
	items, err := s.notifications.ListNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []db.Notification{}
	}

	var unread int64
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	return &NotificationSummary{Items: items, UnreadCount: unread}, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.CountUnreadNotifications(ctx, userID)
}

// Add 新建未读通知
func (s *NotificationService) Add(ctx context.Context, userID, message, kind string) (*db.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidField)
	}
	if kind == "" {
		kind = db.NotificationTypeSystem
	}
	if !db.IsValidNotificationType(kind) {
		return nil, fmt.Errorf("%w: unsupported notification type %q", ErrInvalidField, kind)
	}

	n := db.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Type:      kind,
		CreatedAt: s.now(),
	}
	if err := s.notifications.InsertNotification(ctx, &n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return &n, nil
}

// MarkRead 标记单条为已读
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return notificationErr("mark notification read", s.notifications.MarkNotificationRead(ctx, userID, id))
}

// MarkAllRead 标记全部为已读，返回受影响条数
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}

// Delete 删除通知
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return notificationErr("delete notification", s.notifications.DeleteNotification(ctx, userID, id))
}

func notificationErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotificationNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
