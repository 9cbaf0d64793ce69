// Package jobs holds the background task plumbing: the Asynq worker, the
// task definitions and the client used to enqueue them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/oxbow-chat/oxbow/internal/chatlog"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskChatlogFlush drains the chat log queue into the database.
	TaskChatlogFlush = "chatlog:flush"
	// TaskChatlogPrune deletes chat log rows past the retention window.
	TaskChatlogPrune = "chatlog:prune"
)

// ChatlogPrunePayload carries the retention window for a prune run.
type ChatlogPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewChatlogFlushTask constructs a flush task.
func NewChatlogFlushTask() *asynq.Task {
	return asynq.NewTask(TaskChatlogFlush, nil)
}

// NewChatlogPruneTask constructs a prune task.
func NewChatlogPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(ChatlogPrunePayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChatlogPrune, data), nil
}

// HandleChatlogFlushTask builds the handler for TaskChatlogFlush.
func HandleChatlogFlushTask(flusher *chatlog.Flusher, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := flusher.Flush(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("flushed chat log", slog.Int("entries", n))
		}
		return nil
	}
}

// ChatlogPrunePort deletes aged chat log rows.
type ChatlogPrunePort interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// HandleChatlogPruneTask builds the handler for TaskChatlogPrune.
func HandleChatlogPruneTask(repo ChatlogPrunePort, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ChatlogPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionHours <= 0 {
			return asynq.SkipRetry
		}
		removed, err := repo.Prune(ctx, time.Duration(payload.RetentionHours)*time.Hour)
		if err != nil {
			return err
		}
		logger.Info("pruned chat log", slog.Int64("rows", removed))
		return nil
	}
}
