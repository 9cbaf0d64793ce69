package chatlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the chat log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertBatch writes a drained batch in one round trip.
func (r *Repository) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var tags []byte
		if len(e.Tags) > 0 {
			raw, err := json.Marshal(e.Tags)
			if err != nil {
				return err
			}
			tags = raw
		}
		var senderID *int64
		if e.SenderPlatformID != 0 {
			id := e.SenderPlatformID
			senderID = &id
		}
		rows = append(rows, []any{
			e.Kind, nullable(e.Channel), senderID, nullable(e.SenderLogin),
			nullable(e.Message), nullable(e.MessageID), tags, e.ReceivedAt,
		})
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"chat_events"},
		[]string{"kind", "channel", "sender_platform_id", "sender_login", "message", "message_id", "tags", "received_at"},
		pgx.CopyFromRows(rows))
	return err
}

// Prune deletes log rows older than the retention window and returns how
// many were removed.
func (r *Repository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM chat_events WHERE received_at < now() - $1::interval`,
		retention.String())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
