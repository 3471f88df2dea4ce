package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"travis/models"

	"github.com/go-redis/redis/v8"
)

// HistoryKey is the Redis list holding the rolling history, newest first.
const HistoryKey = "traffic:history"

// ErrNoData is returned by Latest before any sample has been stored.
var ErrNoData = errors.New("no data")

// History is a bounded, most-recent-first log of traffic samples.
type History interface {
	Append(ctx context.Context, sample models.TrafficSample) error
	Latest(ctx context.Context) (*models.TrafficSample, error)
	All(ctx context.Context) ([]models.TrafficSample, error)
}

// RedisHistory keeps the newest size samples in a Redis list.
type RedisHistory struct {
	client *redis.Client
	key    string
	size   int64
}

// NewRedisHistory returns a history capped at size samples.
func NewRedisHistory(client *redis.Client, size int) *RedisHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RedisHistory{client: client, key: HistoryKey, size: int64(size)}
}

// Append stores sample as the newest entry and trims the oldest beyond the cap.
func (h *RedisHistory) Append(ctx context.Context, sample models.TrafficSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal traffic sample: %w", err)
	}
	_, err = h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, h.key, data)
		pipe.LTrim(ctx, h.key, 0, h.size-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store traffic sample: %w", err)
	}
	return nil
}

// Latest returns the newest sample or ErrNoData.
func (h *RedisHistory) Latest(ctx context.Context) (*models.TrafficSample, error) {
	raw, err := h.client.LIndex(ctx, h.key, 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("failed to read latest traffic sample: %w", err)
	}
	var sample models.TrafficSample
	if err := json.Unmarshal([]byte(raw), &sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal traffic sample: %w", err)
	}
	return &sample, nil
}

// All returns the retained samples, oldest first.
func (h *RedisHistory) All(ctx context.Context) ([]models.TrafficSample, error) {
	raws, err := h.client.LRange(ctx, h.key, 0, h.size-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read traffic history: %w", err)
	}
	samples := make([]models.TrafficSample, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var sample models.TrafficSample
		if err := json.Unmarshal([]byte(raws[i]), &sample); err != nil {
			return nil, fmt.Errorf("failed to unmarshal traffic sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
