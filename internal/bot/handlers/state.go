// Package handlers contains the non-command event handlers: channel state
// tracking and chat logging.
package handlers

import (
	"context"
	"fmt"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/chat"
)

// ChannelStatePort is the persistence the state tracker needs.
type ChannelStatePort interface {
	GetOrPersistRoomState(ctx context.Context, name string, roomID int64) (channel.Channel, error)
}

// StateTracker keeps the shared channel map in sync with transport events
// and turns server reconnect notices into a restart request.
type StateTracker struct {
	channels ChannelStatePort
}

// NewStateTracker constructs the state tracking handler.
func NewStateTracker(channels ChannelStatePort) *StateTracker {
	return &StateTracker{channels: channels}
}

func (h *StateTracker) Name() string { return "state_tracker" }

func (h *StateTracker) HandleEvent(ctx context.Context, bc *bot.Context, ev *bot.Event) error {
	switch ev.Kind {
	case chat.KindReconnect:
		bc.Logger.Info("server requested reconnect, restarting")
		bc.RequestRestart()
		return nil
	case chat.KindRoomState:
		return h.trackRoomState(ctx, bc, ev)
	default:
		return nil
	}
}

func (h *StateTracker) trackRoomState(ctx context.Context, bc *bot.Context, ev *bot.Event) error {
	if !ev.HasChannel() {
		return nil
	}
	data, err := h.channels.GetOrPersistRoomState(ctx, ev.Channel, ev.RoomID)
	if err != nil {
		return fmt.Errorf("track roomstate %s: %w", ev.Channel, err)
	}
	info := &bot.ChannelInfo{Data: data}
	if ev.RoomState != nil {
		state := *ev.RoomState
		info.State = &state
	} else if existing, ok := bc.GetChannel(ev.Channel); ok {
		info.State = existing.State
	}
	bc.UpdateChannel(info)
	return nil
}
