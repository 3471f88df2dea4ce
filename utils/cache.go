package utils

import (
	"context"
	"fmt"
	"time"

	"travis/config"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

var (
	// MetricsClient backs the rolling traffic history.
	MetricsClient *redis.Client
)

// InitCache connects the metrics client and verifies it with a ping.
func InitCache() error {
	MetricsClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisMetricsDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := MetricsClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (metrics): %w", err)
	}
	return nil
}

// GetMetricsClient returns the metrics client.
func GetMetricsClient() *redis.Client {
	return MetricsClient
}

// QueueRedisOpt is the connection used by the signal queue client and worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}
