package signalRepo

import (
	"context"

	"travis/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SignalUpdateRepository persists applied signal timings.
type SignalUpdateRepository interface {
	Create(ctx context.Context, update models.SignalUpdate) (string, error)
	Recent(ctx context.Context, limit int64) ([]models.SignalUpdate, error)
}

type mongoSignalRepo struct {
	coll *mongo.Collection
}

// NewMongoSignalRepo returns a SignalUpdateRepository backed by db.
func NewMongoSignalRepo(db *mongo.Database) SignalUpdateRepository {
	repo := &mongoSignalRepo{
		coll: db.Collection("signal_updates"),
	}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("Signal update indexes not ensured", zap.Error(err))
	}
	return repo
}
