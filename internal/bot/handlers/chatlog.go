package handlers

import (
	"context"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/chatlog"
)

// ChatLogger queues every event for the background flusher. Pushing to the
// queue is the only work done on the dispatch path.
type ChatLogger struct {
	queue *chatlog.Queue
}

// NewChatLogger constructs the logging handler.
func NewChatLogger(queue *chatlog.Queue) *ChatLogger {
	return &ChatLogger{queue: queue}
}

func (h *ChatLogger) Name() string { return "chat_logger" }

func (h *ChatLogger) HandleEvent(ctx context.Context, bc *bot.Context, ev *bot.Event) error {
	return h.queue.Push(ctx, chatlog.FromEvent(ev.Event))
}
