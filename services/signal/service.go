package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	signalRepo "travis/database/repository/signal"
	"travis/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 200
)

// ErrInvalidUpdate rejects signal updates without usable timings.
var ErrInvalidUpdate = errors.New("invalid signal update")

// Service plans timings and records applied ones.
type Service struct {
	Sink   Sink
	Repo   signalRepo.SignalUpdateRepository
	Logger *zap.Logger
	now    func() time.Time
}

// NewService returns a Service writing through sink and reading from repo.
func NewService(sink Sink, repo signalRepo.SignalUpdateRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Sink: sink, Repo: repo, Logger: logger, now: time.Now}
}

// Plan runs the optimizer over a traffic reading.
func (s *Service) Plan(sample models.TrafficSample) models.SignalPlan {
	return Optimize(sample.Counts, sample.OverallCongestion)
}

// RecordUpdate assigns an ID and timestamp to update and hands it to the sink.
func (s *Service) RecordUpdate(ctx context.Context, update models.SignalUpdate) (models.SignalUpdate, error) {
	if len(update.Timings) == 0 {
		return update, fmt.Errorf("%w: timings are required", ErrInvalidUpdate)
	}
	for direction, seconds := range update.Timings {
		if direction == "" || seconds <= 0 || seconds > MaxGreenSeconds {
			return update, fmt.Errorf("%w: timing %v out of range for %q", ErrInvalidUpdate, seconds, direction)
		}
	}
	update.ID = uuid.New().String()
	update.CreatedAt = s.now().UTC()

	if err := s.Sink.Record(ctx, update); err != nil {
		s.Logger.Error("Failed to record signal update", zap.String("updateID", update.ID), zap.Error(err))
		return update, err
	}
	s.Logger.Info("Signal update recorded",
		zap.String("updateID", update.ID),
		zap.String("intersection", update.Intersection),
		zap.Any("timings", update.Timings),
	)
	return update, nil
}

// Recent returns the newest recorded updates. limit is clamped to
// [1, MaxRecentLimit]; zero means DefaultRecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.SignalUpdate, error) {
	switch {
	case limit == 0:
		limit = DefaultRecentLimit
	case limit < 1:
		limit = 1
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	return s.Repo.Recent(ctx, int64(limit))
}
