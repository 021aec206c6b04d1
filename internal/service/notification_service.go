package service

import (
	"context"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/events"
	"chezben/internal/metrics"
	"chezben/internal/models"
	"chezben/internal/repository"

	"go.uber.org/zap"
)

type NotificationService struct {
	repo    *repository.NotificationRepository
	users   *repository.UserRepository
	pusher  Pusher
	events  events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, pusher Pusher, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *NotificationService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &NotificationService{repo: repo, users: users, pusher: pusher, events: pub, metrics: m, log: log}
}

// Notify stores a notification for userID and pushes it to the user's open sockets.
func (s *NotificationService) Notify(ctx context.Context, userID uint, title, message, link string) error {
	n := &models.Notification{UserID: userID, Title: title, Message: message, Link: link}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	s.deliver(ctx, n)
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	s.metrics.NotificationsSent.Inc()
	s.pusher.Push(n.UserID, PushNotificationNew, n)
	if err := s.events.Publish(ctx, events.SubjectNotificationCreated, n); err != nil {
		s.log.Warn("publishing notification event failed", zap.Uint("notification_id", n.ID), zap.Error(err))
	}
}

// Broadcast sends the same notification to every active user and returns how many were created.
func (s *NotificationService) Broadcast(ctx context.Context, caller domain.Caller, title, message, link string) (int, error) {
	if !caller.IsAdmin() {
		return 0, forbidden("admin role required")
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return 0, invalid("title and message are required")
	}
	ids, err := s.users.ActiveIDs()
	if err != nil {
		return 0, err
	}
	list := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		list = append(list, models.Notification{UserID: id, Title: title, Message: message, Link: link})
	}
	if err := s.repo.CreateBatch(list); err != nil {
		return 0, err
	}
	for i := range list {
		s.deliver(ctx, &list[i])
	}
	s.log.Info("notification broadcast", zap.Uint("admin_id", caller.UserID), zap.Int("recipients", len(list)))
	return len(list), nil
}

func (s *NotificationService) List(ctx context.Context, caller domain.Caller, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	limit, offset = ClampPage(limit, offset)
	return s.repo.ListByUserID(caller.UserID, unreadOnly, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, caller domain.Caller, id uint) error {
	return notFoundAs(s.repo.MarkRead(id, caller.UserID), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error) {
	return s.repo.MarkAllRead(caller.UserID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller domain.Caller) (int64, error) {
	return s.repo.CountUnread(caller.UserID)
}
