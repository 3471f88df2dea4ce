// Command seed loads sample traffic readings and signal updates for local
// development.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"travis/config"
	"travis/database"
	signalRepo "travis/database/repository/signal"
	"travis/models"
	"travis/services/metrics"
	"travis/services/signal"
	"travis/utils"
)

var directions = []string{"north", "south", "east", "west"}

func main() {
	samples := flag.Int("samples", 30, "traffic readings to push")
	updates := flag.Int("updates", 10, "signal updates to record")
	flag.Parse()

	config.LoadConfig()
	logger := utils.GetLogger()

	if err := utils.InitCache(); err != nil {
		log.Fatalf("seed: %v", err)
	}
	if err := database.InitDB(); err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer database.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Clear existing readings.
	if err := utils.GetMetricsClient().Del(ctx, metrics.HistoryKey).Err(); err != nil {
		log.Fatalf("seed: failed to clear traffic history: %v", err)
	}

	metricsSvc := metrics.NewService(
		metrics.NewRedisHistory(utils.GetMetricsClient(), config.AppConfig.MetricsHistorySize),
		logger,
	)
	repo := signalRepo.NewMongoSignalRepo(database.Database())
	signalSvc := signal.NewService(signal.RepoSink{Repo: repo}, repo, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now().Add(-time.Duration(*samples) * time.Second)
	var last models.TrafficSample
	for i := 0; i < *samples; i++ {
		ts := start.Add(time.Duration(i) * time.Second)
		sample := models.TrafficSample{
			Timestamp:         float64(ts.Unix()),
			Counts:            make(map[string]int, len(directions)),
			OverallCongestion: randomCongestion(rng),
		}
		for _, d := range directions {
			sample.Counts[d] = rng.Intn(40)
		}
		stored, err := metricsSvc.Ingest(ctx, sample)
		if err != nil {
			log.Fatalf("seed: failed to push reading %d: %v", i, err)
		}
		last = stored
	}

	for i := 0; i < *updates && *samples > 0; i++ {
		plan := signalSvc.Plan(last)
		if _, err := signalSvc.RecordUpdate(ctx, models.SignalUpdate{
			Intersection:      "main-junction",
			Timings:           plan.OptimizedTimings,
			OverallCongestion: plan.OverallCongestion,
			Source:            "seed",
		}); err != nil {
			log.Fatalf("seed: failed to record update %d: %v", i, err)
		}
	}

	log.Printf("Seeded %d traffic readings and %d signal updates", *samples, *updates)
}

func randomCongestion(rng *rand.Rand) float64 {
	return float64(rng.Intn(1000)) / 10
}
