package chatlog

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oxbow-chat/oxbow/internal/chat"
)

type memSink struct {
	mu      sync.Mutex
	batches [][]Entry
}

func (s *memSink) InsertBatch(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, entries)
	return nil
}

func newQueue(t *testing.T) (*miniredis.Miniredis, *Queue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewQueue(client)
}

func TestQueueDrainTakesEverythingOnce(t *testing.T) {
	ctx := context.Background()
	_, q := newQueue(t)

	for i := 0; i < 3; i++ {
		ev := &chat.Event{
			Kind:       chat.KindMessage,
			Channel:    "somechannel",
			Message:    "hi",
			Sender:     &chat.UserInfo{PlatformID: 42, Login: "someone"},
			ReceivedAt: time.Now().UTC(),
		}
		require.NoError(t, q.Push(ctx, FromEvent(ev)))
	}

	entries, dropped, err := q.Drain(ctx)
	require.NoError(t, err)
	require.Zero(t, dropped)
	require.Len(t, entries, 3)
	require.Equal(t, "somechannel", entries[0].Channel)
	require.Equal(t, int64(42), entries[0].SenderPlatformID)

	// The queue is empty after a drain.
	entries, dropped, err = q.Drain(ctx)
	require.NoError(t, err)
	require.Zero(t, dropped)
	require.Empty(t, entries)
}

func TestQueueDrainDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mr, q := newQueue(t)

	require.NoError(t, q.Push(ctx, Entry{Kind: "message", Message: "ok", ReceivedAt: time.Now()}))
	_, err := mr.Lpush(queueKey, "{not json")
	require.NoError(t, err)

	entries, dropped, err := q.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, dropped)
	require.Len(t, entries, 1)
	require.Equal(t, "ok", entries[0].Message)
}

func TestFlusherWritesBatches(t *testing.T) {
	ctx := context.Background()
	_, q := newQueue(t)
	sink := &memSink{}
	f := NewFlusher(q, sink, slog.New(slog.DiscardHandler))

	n, err := f.Flush(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, sink.batches, "empty drains must not hit the sink")

	require.NoError(t, q.Push(ctx, Entry{Kind: "message", Message: "a", ReceivedAt: time.Now()}))
	require.NoError(t, q.Push(ctx, Entry{Kind: "whisper", Message: "b", ReceivedAt: time.Now()}))

	n, err = f.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 2)
}
