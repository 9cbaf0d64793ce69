package chatlog

import (
	"context"
	"log/slog"
	"time"
)

// SinkPort is where drained batches land.
type SinkPort interface {
	InsertBatch(ctx context.Context, entries []Entry) error
}

// Flusher periodically drains the queue into the sink.
type Flusher struct {
	queue  *Queue
	sink   SinkPort
	logger *slog.Logger
}

// NewFlusher constructs a flusher.
func NewFlusher(queue *Queue, sink SinkPort, logger *slog.Logger) *Flusher {
	return &Flusher{queue: queue, sink: sink, logger: logger}
}

// Flush drains the queue once and writes the batch. Returns the number of
// entries persisted.
func (f *Flusher) Flush(ctx context.Context) (int, error) {
	entries, dropped, err := f.queue.Drain(ctx)
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		f.logger.Warn("dropped undecodable chat log entries", "count", dropped)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := f.sink.InsertBatch(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Run flushes on the given interval until the context is cancelled, then
// takes one final pass so a clean shutdown loses nothing.
func (f *Flusher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := f.Flush(final); err != nil {
				f.logger.Error("final chat log flush failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := f.Flush(ctx); err != nil {
				f.logger.Error("chat log flush failed", "error", err)
			}
		}
	}
}
