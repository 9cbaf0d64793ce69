// Package chatlog persists chat events. Writers push entries onto a shared
// queue on the hot path; a background flusher drains the queue in batches
// into PostgreSQL so the dispatch path never waits on the database.
package chatlog

import (
	"time"

	"github.com/oxbow-chat/oxbow/internal/chat"
)

// Entry is one queued chat event.
type Entry struct {
	Kind             string            `json:"kind"`
	Channel          string            `json:"channel,omitempty"`
	SenderPlatformID int64             `json:"sender_platform_id,omitempty"`
	SenderLogin      string            `json:"sender_login,omitempty"`
	Message          string            `json:"message,omitempty"`
	MessageID        string            `json:"message_id,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
	ReceivedAt       time.Time         `json:"received_at"`
}

// FromEvent converts a transport event into a log entry.
func FromEvent(ev *chat.Event) Entry {
	e := Entry{
		Kind:       string(ev.Kind),
		Channel:    ev.Channel,
		Message:    ev.Message,
		MessageID:  ev.MessageID,
		Tags:       ev.Tags,
		ReceivedAt: ev.ReceivedAt,
	}
	if ev.Sender != nil {
		e.SenderPlatformID = ev.Sender.PlatformID
		e.SenderLogin = ev.Sender.Login
	}
	return e
}
