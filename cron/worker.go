// Package cron runs the background worker that drains the signal queue.
package cron

import (
	"context"
	"fmt"
	"time"

	signalRepo "travis/database/repository/signal"
	"travis/services/signal"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SignalQueue is the asynq queue carrying signal updates.
const SignalQueue = "signals"

// NewSignalWorker builds the worker server. Run it with StartSignalWorker.
func NewSignalWorker(redisOpt asynq.RedisConnOpt, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				SignalQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)
}

// StartSignalWorker runs srv in the background, retrying start-up with a
// growing delay.
func StartSignalWorker(srv *asynq.Server, repo signalRepo.SignalUpdateRepository, logger *zap.Logger) {
	mux := asynq.NewServeMux()
	mux.HandleFunc(signal.TypeSignalRecord, HandleRecordTask(repo, logger))

	go func() {
		logger.Info("Starting signal worker")
		const maxAttempts = 5

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Warn("Signal worker failed to start",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err),
			)
			if attempt == maxAttempts {
				logger.Error("Signal worker gave up; updates stay queued until restart")
				return
			}
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
	}()
}

// HandleRecordTask persists the update carried by a signal:record task.
func HandleRecordTask(repo signalRepo.SignalUpdateRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		update, err := signal.ParseRecordTask(task)
		if err != nil {
			logger.Error("Dropping malformed signal task", zap.Error(err))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if _, err := repo.Create(ctx, update); err != nil {
			logger.Warn("Failed to persist signal update", zap.String("updateID", update.ID), zap.Error(err))
			return err
		}
		logger.Debug("Signal update persisted", zap.String("updateID", update.ID))
		return nil
	}
}
