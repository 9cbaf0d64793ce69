package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/user"
)

// ErrNoUser indicates an event without user identity was asked for its user.
var ErrNoUser = errors.New("bot: event carries no user identity")

// ErrUnknownChannel indicates an event for a channel the bot is not tracking.
var ErrUnknownChannel = errors.New("bot: channel not tracked")

// Event wraps one chat event for dispatch. The sender's database row is
// resolved lazily and at most once per event, no matter how many handlers
// ask for it; the result, success or failure, is memoized.
type Event struct {
	*chat.Event

	userOnce sync.Once
	user     user.User
	userErr  error
}

// NewEvent wraps a transport event for dispatch.
func NewEvent(e *chat.Event) *Event {
	return &Event{Event: e}
}

// User resolves the sender's user row, inserting or updating it on first
// use. Concurrent callers share a single lookup.
func (e *Event) User(ctx context.Context, bc *Context) (user.User, error) {
	e.userOnce.Do(func() {
		if !e.HasUser() {
			e.userErr = ErrNoUser
			return
		}
		e.user, e.userErr = bc.Users.GetOrUpsert(ctx, *e.Sender)
	})
	return e.user, e.userErr
}

// ChannelInfo returns the tracked state of the event's channel.
func (e *Event) ChannelInfo(bc *Context) (*ChannelInfo, error) {
	if !e.HasChannel() {
		return nil, ErrUnknownChannel
	}
	info, ok := bc.GetChannel(e.Channel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, e.Channel)
	}
	return info, nil
}
