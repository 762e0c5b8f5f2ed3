package driven

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// TaskQueue carries image write tasks from the API to the workers.
// Redis streams back it when configured, otherwise the tasks table.
type TaskQueue interface {
	// Enqueue stores a pending task. Its ID must be unique.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout claims the next ready task and marks it processing,
	// waiting up to timeout seconds. It returns nil, nil when nothing arrived.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a claimed task completed
	Ack(ctx context.Context, taskID string) error

	// Nack records reason and schedules a retry with backoff, or marks the
	// task failed once its attempts are used up
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask returns a task by ID, or ErrNotFound
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Stats counts tasks by status
	Stats(ctx context.Context) (*QueueStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// QueueStats counts tasks by status
// @Description Task counts by status
type QueueStats struct {
	PendingCount    int64 `json:"pending_count" example:"2"`
	ProcessingCount int64 `json:"processing_count" example:"1"`
	CompletedCount  int64 `json:"completed_count" example:"40"`
	FailedCount     int64 `json:"failed_count" example:"0"`
}
