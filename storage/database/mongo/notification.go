package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/somahq/soma/core/notification"
)

type notificationRepository struct {
	coll *mongo.Collection
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *mongo.Database) notification.Repository {
	return &notificationRepository{coll: db.Collection(notificationsCollection)}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	if _, err := repo.coll.InsertOne(ctx, notif); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return notif, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var notif notification.Notification
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&notif)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "finding notification by id")
	}
	return notif, nil
}

func (repo *notificationRepository) QueryAllNotifications(ctx context.Context) ([]notification.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := []notification.Notification{}
	if err = cursor.All(ctx, &notifs); err != nil {
		return nil, errors.Wrap(err, "decoding notifications")
	}
	return notifs, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": notif.ID}, notif)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if res.MatchedCount == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return notif, nil
}

func (repo *notificationRepository) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := repo.coll.DeleteMany(ctx, bson.M{
		"status":     notification.StatusRead,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting read notifications")
	}
	return res.DeletedCount, nil
}
