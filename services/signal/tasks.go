package signal

import (
	"context"
	"encoding/json"
	"fmt"

	signalRepo "travis/database/repository/signal"
	"travis/models"

	"github.com/hibiken/asynq"
)

// TypeSignalRecord is the queue task that persists one signal update.
const TypeSignalRecord = "signal:record"

// NewRecordTask wraps update in a task keyed by the update ID so a retried
// enqueue cannot duplicate it.
func NewRecordTask(update models.SignalUpdate) (*asynq.Task, error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signal update: %w", err)
	}
	return asynq.NewTask(TypeSignalRecord, payload, asynq.MaxRetry(5), asynq.TaskID(update.ID)), nil
}

// ParseRecordTask decodes the update carried by t.
func ParseRecordTask(t *asynq.Task) (models.SignalUpdate, error) {
	var update models.SignalUpdate
	if err := json.Unmarshal(t.Payload(), &update); err != nil {
		return update, fmt.Errorf("failed to unmarshal signal update: %w", err)
	}
	return update, nil
}

// Sink is where recorded updates go.
type Sink interface {
	Record(ctx context.Context, update models.SignalUpdate) error
}

// RepoSink writes updates straight to the repository.
type RepoSink struct {
	Repo signalRepo.SignalUpdateRepository
}

func (s RepoSink) Record(ctx context.Context, update models.SignalUpdate) error {
	_, err := s.Repo.Create(ctx, update)
	return err
}

// Enqueuer is the part of *asynq.Client used by QueueSink.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands updates to the background worker.
type QueueSink struct {
	Client Enqueuer
	Queue  string
}

func (s QueueSink) Record(ctx context.Context, update models.SignalUpdate) error {
	task, err := NewRecordTask(update)
	if err != nil {
		return err
	}
	var opts []asynq.Option
	if s.Queue != "" {
		opts = append(opts, asynq.Queue(s.Queue))
	}
	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue signal update: %w", err)
	}
	return nil
}
