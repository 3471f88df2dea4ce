package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"travis/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestHistory(t *testing.T, size int) *RedisHistory {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedisHistory(rdb, size)
}

func sample(north int) models.TrafficSample {
	return models.TrafficSample{
		Counts:            map[string]int{"N": north, "S": 1},
		OverallCongestion: 42.5,
		ReceivedAt:        float64(north),
	}
}

func TestLatestWithoutData(t *testing.T) {
	h := newTestHistory(t, 5)
	if _, err := h.Latest(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("Latest err = %v, want %v", err, ErrNoData)
	}
	all, err := h.All(context.Background())
	if err != nil || len(all) != 0 {
		t.Fatalf("All = %v, %v", all, err)
	}
}

func TestHistoryIsCappedAndOrdered(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, 3)
	for i := 1; i <= 5; i++ {
		if err := h.Append(ctx, sample(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	latest, err := h.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Counts["N"] != 5 {
		t.Fatalf("latest N = %d, want 5", latest.Counts["N"])
	}

	all, err := h.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(All) = %d, want 3", len(all))
	}
	for i, want := range []int{3, 4, 5} {
		if all[i].Counts["N"] != want {
			t.Fatalf("All[%d].N = %d, want %d", i, all[i].Counts["N"], want)
		}
	}
}

func TestIngestStampsReceivedAt(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestHistory(t, DefaultHistorySize), nil)
	svc.now = func() time.Time { return time.Unix(1700000000, 500000000) }

	stored, err := svc.Ingest(ctx, models.TrafficSample{
		Timestamp:         1699999999,
		Counts:            map[string]int{"E": 4},
		OverallCongestion: 12,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stored.ReceivedAt != 1700000000.5 {
		t.Fatalf("ReceivedAt = %v", stored.ReceivedAt)
	}

	kept, err := svc.Ingest(ctx, models.TrafficSample{Counts: map[string]int{"E": 1}, ReceivedAt: 42})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if kept.ReceivedAt != 42 {
		t.Fatalf("ReceivedAt overwritten: %v", kept.ReceivedAt)
	}

	latest, err := svc.Latest(ctx)
	if err != nil || latest.ReceivedAt != 42 {
		t.Fatalf("Latest = %+v, %v", latest, err)
	}
	recent, err := svc.Recent(ctx)
	if err != nil || len(recent) != 2 {
		t.Fatalf("Recent = %v, %v", recent, err)
	}
}

func TestIngestRejectsInvalidSamples(t *testing.T) {
	svc := NewService(newTestHistory(t, DefaultHistorySize), nil)
	tests := []struct {
		name   string
		sample models.TrafficSample
	}{
		{"no counts", models.TrafficSample{}},
		{"negative count", models.TrafficSample{Counts: map[string]int{"N": -1}}},
		{"empty direction", models.TrafficSample{Counts: map[string]int{"": 3}}},
		{"negative congestion", models.TrafficSample{Counts: map[string]int{"N": 1}, OverallCongestion: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Ingest(context.Background(), tt.sample); !errors.Is(err, ErrInvalidSample) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidSample)
			}
		})
	}
}
