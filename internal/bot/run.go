package bot

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/oxbow-chat/oxbow/internal/chat"
)

// RunResult tells the caller why the run loop returned.
type RunResult int

const (
	// RunStopped means the transport closed or the context was cancelled.
	RunStopped RunResult = iota
	// RunRestart means a restart was requested; the caller should rebuild
	// the process state and run again.
	RunRestart
)

// Run consumes events from the transport until it closes, the context is
// cancelled or a restart is requested. Up to eventConcurrency events are
// dispatched concurrently; a restart drains in-flight events first.
func Run(ctx context.Context, bc *Context, transport chat.Transport, d *Dispatcher, eventConcurrency int64) (RunResult, error) {
	if eventConcurrency < 1 {
		eventConcurrency = 1
	}
	sem := semaphore.NewWeighted(eventConcurrency)

	drain := func() {
		// Acquiring the full weight waits for every in-flight event.
		if err := sem.Acquire(context.Background(), eventConcurrency); err == nil {
			sem.Release(eventConcurrency)
		}
	}

	for {
		if bc.RestartRequested() {
			drain()
			return RunRestart, nil
		}
		select {
		case <-ctx.Done():
			drain()
			return RunStopped, ctx.Err()
		case ev, ok := <-transport.Events():
			if !ok {
				drain()
				if bc.RestartRequested() {
					return RunRestart, nil
				}
				return RunStopped, transport.Err()
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				drain()
				return RunStopped, err
			}
			go func(ev *chat.Event) {
				defer sem.Release(1)
				if err := d.Dispatch(ctx, bc, NewEvent(ev)); err != nil {
					bc.Logger.Error("event dispatch failed",
						"kind", ev.Kind,
						"channel", ev.Channel,
						"error", err)
				}
			}(ev)
		}
	}
}
