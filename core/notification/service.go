package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

// readRetention is how long read notifications are kept before the cleanup
// job removes them.
const readRetention = 30 * 24 * time.Hour

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		// QueryAllNotifications returns notifications newest first.
		QueryAllNotifications(ctx context.Context) ([]Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, userID, title, message string) (Notification, error) {
	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Status:    StatusUnread,
		CreatedAt: time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	return n, errors.Wrap(err, "creating notification")
}

func (svc *Service) QueryAll(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryAllNotifications(ctx)
}

// MarkRead flips a notification to read.
func (svc *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, errors.Wrap(err, "finding notification by ID")
	}
	n.Status = StatusRead
	n, err = svc.repo.UpdateNotification(ctx, n)
	return n, errors.Wrap(err, "updating notification")
}

// CleanupRead deletes read notifications older than the retention window;
// wired to a daily scheduler job.
func (svc *Service) CleanupRead(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-readRetention)
	return svc.repo.DeleteReadNotificationsBefore(ctx, cutoff)
}
