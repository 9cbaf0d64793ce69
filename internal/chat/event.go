// Package chat defines the boundary to the chat transport: the parsed
// events the core consumes and the sink it writes replies to. Wire parsing,
// reconnection and rate limiting belong to the transport implementation.
package chat

import "time"

// Kind identifies the type of a parsed chat event.
type Kind string

const (
	KindMessage    Kind = "message"
	KindWhisper    Kind = "whisper"
	KindJoin       Kind = "join"
	KindPart       Kind = "part"
	KindRoomState  Kind = "roomstate"
	KindUserNotice Kind = "usernotice"
	KindNotice     Kind = "notice"
	KindClearChat  Kind = "clearchat"
	KindClearMsg   Kind = "clearmsg"
	KindReconnect  Kind = "reconnect"
	KindConnect    Kind = "connect"
)

// UserInfo identifies the platform user attached to an event.
type UserInfo struct {
	PlatformID  int64
	Login       string
	DisplayName string
}

// RoomState carries the live channel flags announced by a roomstate event.
type RoomState struct {
	// Slow mode delay in seconds, 0 when off.
	Slow int
	// Followers-only minimum follow age in minutes, -1 when off.
	FollowersOnly int
	SubsOnly      bool
	R9K           bool
	EmoteOnly     bool
}

// Event is one parsed chat event as delivered by the transport. Fields that
// do not apply to the event kind are left zero.
type Event struct {
	Kind       Kind
	Channel    string
	RoomID     int64
	Message    string
	MessageID  string
	Sender     *UserInfo
	Tags       map[string]string
	RoomState  *RoomState
	ReceivedAt time.Time
}

// HasUser reports whether the event carries user identity that the lazy
// user resolver can act on.
func (e *Event) HasUser() bool {
	return e.Sender != nil && e.Sender.PlatformID != 0
}

// HasChannel reports whether the event is scoped to a channel.
func (e *Event) HasChannel() bool {
	return e.Channel != ""
}
