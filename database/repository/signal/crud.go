package signalRepo

import (
	"context"
	"time"

	"travis/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts update and returns its ID. Updates redelivered by the queue
// keep their original ID and are written once.
func (r *mongoSignalRepo) Create(ctx context.Context, update models.SignalUpdate) (string, error) {
	if update.ID == "" {
		update.ID = uuid.New().String()
	}
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"id": update.ID}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, bson.M{"$setOnInsert": update}, opts); err != nil {
		return "", err
	}
	return update.ID, nil
}

// Recent returns up to limit updates, newest first.
func (r *mongoSignalRepo) Recent(ctx context.Context, limit int64) ([]models.SignalUpdate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	updates := []models.SignalUpdate{}
	if err := cursor.All(ctx, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
