package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Console is a line-based development transport. Each input line of the
// form "<channel> <message>" becomes a channel message from the configured
// operator identity; outgoing traffic is written to the output writer.
// It lets the full dispatch and command pipeline run without a chat
// connection.
type Console struct {
	operator UserInfo
	out      io.Writer
	events   chan *Event

	mu      sync.Mutex
	readErr error
}

// NewConsole starts reading events from r on a background goroutine.
func NewConsole(r io.Reader, w io.Writer, operator UserInfo) *Console {
	c := &Console{
		operator: operator,
		out:      w,
		events:   make(chan *Event, 16),
	}
	go c.read(r)
	return c
}

func (c *Console) read(r io.Reader) {
	defer close(c.events)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		channel, message, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		sender := c.operator
		c.events <- &Event{
			Kind:       KindMessage,
			Channel:    channel,
			Message:    message,
			MessageID:  uuid.NewString(),
			Sender:     &sender,
			ReceivedAt: time.Now(),
		}
	}
	c.mu.Lock()
	c.readErr = scanner.Err()
	c.mu.Unlock()
}

func (c *Console) Events() <-chan *Event { return c.events }

func (c *Console) SendMessage(_ context.Context, channel, message string) error {
	_, err := fmt.Fprintf(c.out, "[%s] %s\n", channel, message)
	return err
}

func (c *Console) SendWhisper(_ context.Context, login, message string) error {
	_, err := fmt.Fprintf(c.out, "[whisper->%s] %s\n", login, message)
	return err
}

func (c *Console) Join(_ context.Context, channel string) error {
	_, err := fmt.Fprintf(c.out, "[join] %s\n", channel)
	return err
}

func (c *Console) Part(_ context.Context, channel string) error {
	_, err := fmt.Fprintf(c.out, "[part] %s\n", channel)
	return err
}

func (c *Console) Close() error { return nil }

func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}
