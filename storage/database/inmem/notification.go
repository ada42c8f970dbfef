package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/somahq/soma/core/notification"
)

type NotificationRepository struct {
	mu     sync.RWMutex
	notifs []notification.Notification
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(notifs ...notification.Notification) *NotificationRepository {
	return &NotificationRepository{notifs: notifs}
}

func (repo *NotificationRepository) CreateNotification(_ context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.mu.Lock()
	repo.notifs = append(repo.notifs, notif)
	repo.mu.Unlock()
	return notif, nil
}

func (repo *NotificationRepository) GetNotificationByID(_ context.Context, id string) (notification.Notification, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, notif := range repo.notifs {
		if notif.ID == id {
			return notif, nil
		}
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *NotificationRepository) QueryAllNotifications(_ context.Context) ([]notification.Notification, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	notifs := make([]notification.Notification, 0, len(repo.notifs))
	for i := len(repo.notifs) - 1; i >= 0; i-- { // newest first
		notifs = append(notifs, repo.notifs[i])
	}
	return notifs, nil
}

func (repo *NotificationRepository) UpdateNotification(_ context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.notifs {
		if repo.notifs[i].ID == notif.ID {
			repo.notifs[i] = notif
			return notif, nil
		}
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *NotificationRepository) DeleteReadNotificationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var kept []notification.Notification
	var deleted int64
	for _, notif := range repo.notifs {
		if notif.Status == notification.StatusRead && notif.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, notif)
	}
	repo.notifs = kept
	return deleted, nil
}
