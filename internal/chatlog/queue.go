package chatlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oxbow-chat/oxbow/internal/platform/cache"
)

var queueKey = cache.Key("chatlog", "queue")

// Queue buffers chat log entries in Redis until the flusher drains them.
type Queue struct {
	client *redis.Client
}

// NewQueue constructs a queue.
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Push appends one entry to the queue.
func (q *Queue) Push(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("chatlog: encode entry: %w", err)
	}
	if err := q.client.RPush(ctx, queueKey, raw).Err(); err != nil {
		return fmt.Errorf("chatlog: queue entry: %w", err)
	}
	return nil
}

// Drain atomically takes everything currently queued. Entries that fail to
// decode are dropped with their count reported, so one corrupt entry cannot
// wedge the flusher.
func (q *Queue) Drain(ctx context.Context) ([]Entry, int, error) {
	pipe := q.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, queueKey, 0, -1)
	pipe.Del(ctx, queueKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, 0, fmt.Errorf("chatlog: drain queue: %w", err)
	}
	raw := rangeCmd.Val()
	entries := make([]Entry, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}
