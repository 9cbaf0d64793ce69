package chat

import (
	"context"
	"sync"
)

// Pipe is an in-memory Transport for tests and embedding. Events are pushed
// in with Deliver and everything written to the sink is recorded.
type Pipe struct {
	events chan *Event

	mu       sync.Mutex
	sent     []Outgoing
	closed   bool
	closeErr error
}

// Outgoing is one message written to the pipe's sink.
type Outgoing struct {
	Kind    string // "message", "whisper", "join", "part"
	Target  string
	Message string
}

// NewPipe creates a pipe with the given event buffer size.
func NewPipe(buffer int) *Pipe {
	return &Pipe{events: make(chan *Event, buffer)}
}

// Deliver feeds one event to the consumer side.
func (p *Pipe) Deliver(ev *Event) {
	p.events <- ev
}

// Events returns the inbound event stream.
func (p *Pipe) Events() <-chan *Event { return p.events }

// Sent returns a copy of everything written to the sink so far.
func (p *Pipe) Sent() []Outgoing {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Outgoing, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *Pipe) record(kind, target, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, Outgoing{Kind: kind, Target: target, Message: message})
	return nil
}

func (p *Pipe) SendMessage(_ context.Context, channel, message string) error {
	return p.record("message", channel, message)
}

func (p *Pipe) SendWhisper(_ context.Context, login, message string) error {
	return p.record("whisper", login, message)
}

func (p *Pipe) Join(_ context.Context, channel string) error {
	return p.record("join", channel, "")
}

func (p *Pipe) Part(_ context.Context, channel string) error {
	return p.record("part", channel, "")
}

// Close stops the event stream.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	return nil
}

// Err reports why the stream ended.
func (p *Pipe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeErr
}
