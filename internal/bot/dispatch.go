package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/oxbow-chat/oxbow/internal/chat"
)

// Handler processes one event. Handlers in the same group run sequentially
// in registration order; groups run concurrently.
type Handler interface {
	Name() string
	HandleEvent(ctx context.Context, bc *Context, ev *Event) error
}

// Matcher decides whether a handler group receives an event.
type Matcher func(ev *Event) bool

// MatchAll passes every event.
func MatchAll(*Event) bool { return true }

// MatchMessages passes channel messages and whispers.
func MatchMessages(ev *Event) bool {
	return ev.Kind == chat.KindMessage || ev.Kind == chat.KindWhisper
}

// MatchKinds passes events of the listed kinds.
func MatchKinds(kinds ...chat.Kind) Matcher {
	return func(ev *Event) bool {
		for _, k := range kinds {
			if ev.Kind == k {
				return true
			}
		}
		return false
	}
}

type handlerGroup struct {
	match    Matcher
	handlers []Handler
}

// Dispatcher fans one event out to its matching handler groups with a bound
// on how many groups work on the event at once.
type Dispatcher struct {
	groups           []handlerGroup
	groupConcurrency int64
}

// NewDispatcher builds a dispatcher. groupConcurrency bounds the number of
// handler groups working on a single event concurrently.
func NewDispatcher(groupConcurrency int64) *Dispatcher {
	if groupConcurrency < 1 {
		groupConcurrency = 1
	}
	return &Dispatcher{groupConcurrency: groupConcurrency}
}

// AddGroup registers a handler group behind a matcher.
func (d *Dispatcher) AddGroup(match Matcher, handlers ...Handler) {
	d.groups = append(d.groups, handlerGroup{match: match, handlers: handlers})
}

// Dispatch runs the event through every matching group and waits for all of
// them. A failing group never stops the others; all group errors are joined
// into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, bc *Context, ev *Event) error {
	sem := semaphore.NewWeighted(d.groupConcurrency)
	errs := make([]error, len(d.groups))
	var wg sync.WaitGroup
	for i, g := range d.groups {
		if !g.match(ev) {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(i int, g handlerGroup) {
			defer wg.Done()
			defer sem.Release(1)
			errs[i] = runGroup(ctx, bc, ev, g)
		}(i, g)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func runGroup(ctx context.Context, bc *Context, ev *Event, g handlerGroup) error {
	for _, h := range g.handlers {
		if err := h.HandleEvent(ctx, bc, ev); err != nil {
			return fmt.Errorf("%s: %w", h.Name(), err)
		}
	}
	return nil
}
