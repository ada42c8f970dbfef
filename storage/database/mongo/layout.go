package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/somahq/soma/core/layout"
)

type layoutRepository struct {
	coll *mongo.Collection
}

var _ layout.Repository = (*layoutRepository)(nil)

func NewLayoutRepository(db *mongo.Database) layout.Repository {
	return &layoutRepository{coll: db.Collection(layoutsCollection)}
}

func (repo *layoutRepository) CreateLayout(ctx context.Context, lay layout.Layout) (layout.Layout, error) {
	if _, err := repo.coll.InsertOne(ctx, lay); err != nil {
		return layout.Layout{}, errors.Wrap(err, "inserting layout")
	}
	return lay, nil
}

func (repo *layoutRepository) GetLayoutByType(ctx context.Context, typ layout.Type) (layout.Layout, error) {
	var lay layout.Layout
	err := repo.coll.FindOne(ctx, bson.M{"type": typ}).Decode(&lay)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return layout.Layout{}, layout.ErrNotFound
		}
		return layout.Layout{}, errors.Wrap(err, "finding layout by type")
	}
	return lay, nil
}

func (repo *layoutRepository) UpdateLayout(ctx context.Context, lay layout.Layout) (layout.Layout, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": lay.ID}, lay)
	if err != nil {
		return layout.Layout{}, errors.Wrap(err, "updating layout")
	}
	if res.MatchedCount == 0 {
		return layout.Layout{}, layout.ErrNotFound
	}
	return lay, nil
}
