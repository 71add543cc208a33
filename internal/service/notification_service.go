package service

import (
	"context"
	"fmt"

	"servicelink/internal/model"
	"servicelink/internal/repository"

	"github.com/google/uuid"
)

type NotificationService interface {
	ListForUser(ctx context.Context, userID string, page, limit int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string, userID string) (bool, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, page, limit int) ([]model.Notification, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", err)
	}
	return s.repo.ListByUser(ctx, uid, page, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", err)
	}
	return s.repo.CountUnread(ctx, uid)
}

// MarkRead flags one of the user's notifications as read. Returns false when
// the notification does not exist or belongs to someone else.
func (s *notificationService) MarkRead(ctx context.Context, id string, userID string) (bool, error) {
	nid, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("invalid notification id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user id: %w", err)
	}
	rows, err := s.repo.MarkRead(ctx, nid, uid)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
