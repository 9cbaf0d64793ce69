package router

import (
	"context"
	"fmt"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/command"
)

// Invocation is one permitted command execution: the triggering event, the
// resolved command and the channel it happened in (nil for whispers).
type Invocation struct {
	bc     *bot.Context
	ev     *bot.Event
	router *Router

	Alias   string
	RawArgs string
	Attrs   command.Attributes
	Channel *bot.ChannelInfo
}

// Bot returns the shared runtime context.
func (inv *Invocation) Bot() *bot.Context { return inv.bc }

// Event returns the triggering event.
func (inv *Invocation) Event() *bot.Event { return inv.ev }

// Args tokenizes the raw argument string.
func (inv *Invocation) Args() ([]string, error) {
	return command.SplitArgs(inv.RawArgs)
}

// Reply answers where the invocation came from: the channel for messages,
// a whisper back to the sender for whispers. Replies into silent channels
// are dropped.
func (inv *Invocation) Reply(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if inv.ev.Kind == chat.KindWhisper {
		if inv.ev.Sender == nil {
			return nil
		}
		return inv.bc.Sender.SendWhisper(ctx, inv.ev.Sender.Login, text)
	}
	if inv.Channel != nil && inv.Channel.Data.Silent {
		return nil
	}
	return inv.bc.Sender.SendMessage(ctx, inv.ev.Channel, text)
}

// Replyf is Reply with formatting.
func (inv *Invocation) Replyf(ctx context.Context, format string, args ...any) error {
	return inv.Reply(ctx, fmt.Sprintf(format, args...))
}

// SenderHas checks named permissions against the sender, expanding each
// with its implying permissions.
func (inv *Invocation) SenderHas(ctx context.Context, names ...string) (bool, error) {
	return inv.router.senderSatisfies(ctx, inv.bc, inv.ev, names)
}

// RequirePermissions checks named permissions and sends the polite
// rejection on failure. The bool result tells the command whether to go on.
func (inv *Invocation) RequirePermissions(ctx context.Context, names ...string) (bool, error) {
	ok, err := inv.SenderHas(ctx, names...)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, inv.Reply(ctx, "sorry, you don't have permission to do that.")
	}
	return true, nil
}
