package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested channel does not exist.
var ErrNotFound = errors.New("channel: not found")

const channelColumns = `id, room_id, name, join_on_start, command_prefix, silent, updated_at, created_at`

// Repository provides PostgreSQL backed persistence for channels.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanChannel(row pgx.Row) (Channel, error) {
	var c Channel
	err := row.Scan(&c.ID, &c.RoomID, &c.Name, &c.JoinOnStart, &c.CommandPrefix, &c.Silent, &c.UpdatedAt, &c.CreatedAt)
	return c, err
}

// Get returns a channel by name, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, name string) (Channel, error) {
	c, err := scanChannel(r.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Channel{}, ErrNotFound
	}
	if err != nil {
		return Channel{}, err
	}
	return c, nil
}

// GetOrPersistRoomState returns the channel for a roomstate observation,
// inserting it when unknown and backfilling the platform room id when the
// stored row does not have one yet.
func (r *Repository) GetOrPersistRoomState(ctx context.Context, name string, roomID int64) (Channel, error) {
	existing, err := r.Get(ctx, name)
	if err == nil {
		if existing.RoomID == nil && roomID != 0 {
			return scanChannel(r.pool.QueryRow(ctx,
				`UPDATE channels SET room_id = $2, updated_at = now() WHERE name = $1 RETURNING `+channelColumns,
				name, roomID))
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Channel{}, err
	}
	return scanChannel(r.pool.QueryRow(ctx,
		`INSERT INTO channels (name, room_id) VALUES ($1, NULLIF($2, 0)) RETURNING `+channelColumns,
		name, roomID))
}

// UpdateSettings applies the non-nil settings fields to a channel.
func (r *Repository) UpdateSettings(ctx context.Context, name string, settings Settings) (Channel, error) {
	var prefix any
	setPrefix := false
	if settings.CommandPrefix != nil {
		setPrefix = true
		if *settings.CommandPrefix != nil {
			prefix = **settings.CommandPrefix
		}
	}
	c, err := scanChannel(r.pool.QueryRow(ctx, `
		UPDATE channels SET
			join_on_start = COALESCE($2, join_on_start),
			command_prefix = CASE WHEN $3 THEN $4 ELSE command_prefix END,
			silent = COALESCE($5, silent),
			updated_at = now()
		WHERE name = $1
		RETURNING `+channelColumns,
		name, settings.JoinOnStart, setPrefix, prefix, settings.Silent))
	if errors.Is(err, pgx.ErrNoRows) {
		return Channel{}, ErrNotFound
	}
	if err != nil {
		return Channel{}, fmt.Errorf("channel: update settings %s: %w", name, err)
	}
	return c, nil
}

// Create inserts a new channel.
func (r *Repository) Create(ctx context.Context, insert Insert) (Channel, error) {
	return scanChannel(r.pool.QueryRow(ctx, `
		INSERT INTO channels (name, room_id, join_on_start, command_prefix, silent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+channelColumns,
		insert.Name, insert.RoomID, insert.JoinOnStart, insert.CommandPrefix, insert.Silent))
}

// StartupChannels returns the channels joined on boot.
func (r *Repository) StartupChannels(ctx context.Context) ([]Channel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE join_on_start ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// List returns all channels ordered by name.
func (r *Repository) List(ctx context.Context) ([]Channel, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
