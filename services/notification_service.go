package services

import (
	"context"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
)

type NotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) error
	Delete(ctx context.Context, id, userID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	events           realtime.EventSink
}

func NewNotificationService(notificationRepo repositories.NotificationRepository, events realtime.EventSink) NotificationService {
	return &notificationService{notificationRepo: notificationRepo, events: events}
}

func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}
	s.events.Publish(realtime.UserTopic(n.UserID), realtime.EventNotification, n)
	return nil
}

func (s *notificationService) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) CountUnread(ctx context.Context, userID int) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID int) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, id, userID int) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}
