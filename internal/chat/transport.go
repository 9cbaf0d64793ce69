package chat

import "context"

// Sender is the outbound half of the chat transport.
type Sender interface {
	SendMessage(ctx context.Context, channel, message string) error
	SendWhisper(ctx context.Context, login, message string) error
	Join(ctx context.Context, channel string) error
	Part(ctx context.Context, channel string) error
}

// Transport is a connected chat session. Events terminates when the
// connection is closed; Err reports why.
type Transport interface {
	Sender
	Events() <-chan *Event
	Close() error
	Err() error
}
