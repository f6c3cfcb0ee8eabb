package notification

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, organizationID, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error

	// NotifyAll fans out one notification per recipient. Individual failures
	// are logged and skipped; the call itself never fails.
	NotifyAll(ctx context.Context, organizationID primitive.ObjectID, userIDs []primitive.ObjectID, title, message string, notifType NotificationType, link string)

	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	repo   NotificationRepository
	hub    *Hub
	logger *zap.Logger
}

func NewNotificationService(repo NotificationRepository, hub *Hub, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

func (s *NotificationServiceImpl) CreateNotification(ctx context.Context, organizationID, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error {
	notification := &Notification{
		OrganizationID: organizationID,
		UserID:         userID,
		Title:          title,
		Message:        message,
		Type:           notifType,
		Link:           link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	s.hub.Publish(userID.Hex(), notification)
	return nil
}

func (s *NotificationServiceImpl) NotifyAll(ctx context.Context, organizationID primitive.ObjectID, userIDs []primitive.ObjectID, title, message string, notifType NotificationType, link string) {
	for _, userID := range userIDs {
		if err := s.CreateNotification(ctx, organizationID, userID, title, message, notifType, link); err != nil {
			s.logger.Warn("Failed to create notification",
				zap.String("user_id", userID.Hex()),
				zap.String("title", title),
				zap.Error(err))
		}
	}
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	return s.repo.GetByUserID(ctx, userID, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, objID, userID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
