package signal

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"travis/models"

	"github.com/hibiken/asynq"
)

func TestOptimize(t *testing.T) {
	tests := []struct {
		name       string
		counts     map[string]int
		congestion float64
		want       map[string]float64
	}{
		{
			name:       "light traffic",
			counts:     map[string]int{"N": 10, "S": 10},
			congestion: 10,
			want:       map[string]float64{"N": 25, "S": 25},
		},
		{
			name:       "moderate traffic",
			counts:     map[string]int{"N": 30, "E": 10},
			congestion: 45,
			want:       map[string]float64{"N": 38.7, "E": 26.2},
		},
		{
			name:       "heavy traffic clamps to max",
			counts:     map[string]int{"N": 100},
			congestion: 90,
			want:       map[string]float64{"N": 60},
		},
		{
			name:       "idle direction keeps base time",
			counts:     map[string]int{"N": 0, "W": 5},
			congestion: 61,
			want:       map[string]float64{"N": 20, "W": 60},
		},
		{
			name:       "thresholds are exclusive",
			counts:     map[string]int{"N": 1, "S": 1},
			congestion: 30,
			want:       map[string]float64{"N": 25, "S": 25},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Optimize(tt.counts, tt.congestion)
			if plan.OverallCongestion != tt.congestion {
				t.Fatalf("congestion = %v", plan.OverallCongestion)
			}
			for direction, want := range tt.want {
				if got := plan.OptimizedTimings[direction]; got != want {
					t.Errorf("optimized[%s] = %v, want %v", direction, got, want)
				}
				if got := plan.OriginalTimings[direction]; got != BaseGreenSeconds {
					t.Errorf("original[%s] = %v, want %v", direction, got, BaseGreenSeconds)
				}
			}
			if len(plan.OptimizedTimings) != len(tt.counts) {
				t.Fatalf("optimized has %d directions, want %d", len(plan.OptimizedTimings), len(tt.counts))
			}
		})
	}
}

func TestOptimizeEmpty(t *testing.T) {
	plan := Optimize(nil, 50)
	if len(plan.OptimizedTimings) != 0 || len(plan.OriginalTimings) != 0 {
		t.Fatalf("plan = %+v", plan)
	}
}

type memoryRepo struct {
	mu      sync.Mutex
	updates []models.SignalUpdate
}

func (m *memoryRepo) Create(_ context.Context, u models.SignalUpdate) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, u)
	return u.ID, nil
}

func (m *memoryRepo) Recent(_ context.Context, limit int64) ([]models.SignalUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SignalUpdate
	for i := len(m.updates) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, m.updates[i])
	}
	return out, nil
}

func TestRecordUpdate(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(RepoSink{Repo: repo}, repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	got, err := svc.RecordUpdate(context.Background(), models.SignalUpdate{
		Intersection: "roundabout-1",
		Timings:      map[string]float64{"N": 38.8, "E": 26.2},
	})
	if err != nil {
		t.Fatalf("RecordUpdate: %v", err)
	}
	if got.ID == "" || !got.CreatedAt.Equal(svc.now()) {
		t.Fatalf("update = %+v", got)
	}
	if len(repo.updates) != 1 || repo.updates[0].ID != got.ID {
		t.Fatalf("repo = %+v", repo.updates)
	}
}

func TestRecordUpdateRejectsBadTimings(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(RepoSink{Repo: repo}, repo, nil)
	for _, timings := range []map[string]float64{
		nil,
		{"N": 0},
		{"N": 61},
		{"": 20},
	} {
		if _, err := svc.RecordUpdate(context.Background(), models.SignalUpdate{Timings: timings}); !errors.Is(err, ErrInvalidUpdate) {
			t.Errorf("timings %v: err = %v, want %v", timings, err, ErrInvalidUpdate)
		}
	}
	if len(repo.updates) != 0 {
		t.Fatalf("invalid updates stored: %+v", repo.updates)
	}
}

func TestRecentClampsLimit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(RepoSink{Repo: repo}, repo, nil)
	for i := 0; i < MaxRecentLimit+10; i++ {
		repo.updates = append(repo.updates, models.SignalUpdate{ID: strconv.Itoa(i)})
	}
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultRecentLimit},
		{-3, 1},
		{5, 5},
		{MaxRecentLimit + 50, MaxRecentLimit},
	}
	for _, tt := range tests {
		got, err := svc.Recent(context.Background(), tt.limit)
		if err != nil {
			t.Fatalf("Recent(%d): %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("Recent(%d) returned %d, want %d", tt.limit, len(got), tt.want)
		}
	}
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{}, nil
}

func TestQueueSinkRoundTrip(t *testing.T) {
	q := &fakeEnqueuer{}
	sink := QueueSink{Client: q, Queue: "signals"}
	update := models.SignalUpdate{ID: "u-1", Timings: map[string]float64{"S": 22.5}}

	if err := sink.Record(context.Background(), update); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(q.tasks) != 1 || q.tasks[0].Type() != TypeSignalRecord {
		t.Fatalf("tasks = %v", q.tasks)
	}
	if len(q.opts[0]) != 1 {
		t.Fatalf("opts = %v", q.opts[0])
	}
	parsed, err := ParseRecordTask(q.tasks[0])
	if err != nil {
		t.Fatalf("ParseRecordTask: %v", err)
	}
	if parsed.ID != "u-1" || parsed.Timings["S"] != 22.5 {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestQueueSinkEnqueueFailure(t *testing.T) {
	q := &fakeEnqueuer{err: errors.New("redis down")}
	sink := QueueSink{Client: q}
	if err := sink.Record(context.Background(), models.SignalUpdate{ID: "u-2"}); err == nil {
		t.Fatal("Record succeeded with a failing queue")
	}
}
