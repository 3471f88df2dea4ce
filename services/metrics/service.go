// Package metrics stores the rolling traffic readings shown on the dashboard.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travis/models"

	"go.uber.org/zap"
)

// DefaultHistorySize matches one minute of once-per-second readings.
const DefaultHistorySize = 60

// ErrInvalidSample rejects readings that cannot come from the vision model.
var ErrInvalidSample = errors.New("invalid traffic sample")

// Service validates and stamps incoming samples before storing them.
type Service struct {
	History History
	Logger  *zap.Logger
	now     func() time.Time
}

// NewService returns a Service backed by history.
func NewService(history History, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{History: history, Logger: logger, now: time.Now}
}

// Ingest stores sample, setting ReceivedAt when the sender left it empty.
func (s *Service) Ingest(ctx context.Context, sample models.TrafficSample) (models.TrafficSample, error) {
	if len(sample.Counts) == 0 {
		return sample, fmt.Errorf("%w: counts are required", ErrInvalidSample)
	}
	for direction, count := range sample.Counts {
		if direction == "" || count < 0 {
			return sample, fmt.Errorf("%w: bad count for direction %q", ErrInvalidSample, direction)
		}
	}
	if sample.OverallCongestion < 0 {
		return sample, fmt.Errorf("%w: negative congestion", ErrInvalidSample)
	}
	if sample.ReceivedAt == 0 {
		now := s.now()
		sample.ReceivedAt = float64(now.Unix()) + float64(now.Nanosecond())/1e9
	}
	if err := s.History.Append(ctx, sample); err != nil {
		s.Logger.Error("Failed to store traffic sample", zap.Error(err))
		return sample, err
	}
	return sample, nil
}

// Latest returns the newest sample or ErrNoData.
func (s *Service) Latest(ctx context.Context) (*models.TrafficSample, error) {
	return s.History.Latest(ctx)
}

// Recent returns the retained samples, oldest first.
func (s *Service) Recent(ctx context.Context) ([]models.TrafficSample, error) {
	return s.History.All(ctx)
}
