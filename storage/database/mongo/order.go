package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/somahq/soma/core/order"
)

type orderRepository struct {
	coll *mongo.Collection
}

var _ order.Repository = (*orderRepository)(nil)

func NewOrderRepository(db *mongo.Database) order.Repository {
	return &orderRepository{coll: db.Collection(ordersCollection)}
}

func (repo *orderRepository) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	if _, err := repo.coll.InsertOne(ctx, ord); err != nil {
		return order.Order{}, errors.Wrap(err, "inserting order")
	}
	return ord, nil
}

func (repo *orderRepository) QueryAllOrders(ctx context.Context) ([]order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying orders")
	}
	orders := []order.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "decoding orders")
	}
	return orders, nil
}

func (repo *orderRepository) CountOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	count, err := repo.coll.CountDocuments(ctx, createdBetweenFilter(from, to))
	if err != nil {
		return 0, errors.Wrap(err, "counting orders")
	}
	return count, nil
}
