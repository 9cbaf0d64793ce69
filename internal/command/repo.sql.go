package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oxbow-chat/oxbow/internal/platform/db"
)

// ErrNotFound indicates that the requested command does not exist.
var ErrNotFound = errors.New("command: not found")

// Cooldowns are persisted as milliseconds; zero/NULL means none.
const attributeColumns = `id, handler_name, COALESCE(description, ''), enabled, default_active, COALESCE(cooldown_ms, 0), whisper_enabled`

// Repository provides PostgreSQL backed persistence for commands.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAttributes(row pgx.Row) (Attributes, error) {
	var a Attributes
	var cooldownMS int64
	if err := row.Scan(&a.ID, &a.HandlerName, &a.Description, &a.Enabled, &a.DefaultActive, &cooldownMS, &a.WhisperEnabled); err != nil {
		return Attributes{}, err
	}
	a.Cooldown = time.Duration(cooldownMS) * time.Millisecond
	return a, nil
}

// Aliases returns every alias row.
func (r *Repository) Aliases(ctx context.Context) ([]Alias, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, command_id FROM command_aliases ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var aliases []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Name, &a.CommandID); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// AllAttributes returns every command's attributes.
func (r *Repository) AllAttributes(ctx context.Context) ([]Attributes, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+attributeColumns+` FROM command_attributes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attrs []Attributes
	for rows.Next() {
		a, err := scanAttributes(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// Get returns one command's attributes by id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int32) (Attributes, error) {
	a, err := scanAttributes(r.pool.QueryRow(ctx,
		`SELECT `+attributeColumns+` FROM command_attributes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Attributes{}, ErrNotFound
	}
	return a, err
}

// ChannelConfig returns the per-channel override row for a command, or nil
// when the channel has none.
func (r *Repository) ChannelConfig(ctx context.Context, channelID, commandID int32) (*ChannelConfig, error) {
	var cfg ChannelConfig
	var cooldownMS *int64
	err := r.pool.QueryRow(ctx,
		`SELECT channel_id, command_id, active, cooldown_ms FROM channel_command_config WHERE channel_id = $1 AND command_id = $2`,
		channelID, commandID).Scan(&cfg.ChannelID, &cfg.CommandID, &cfg.Active, &cooldownMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cooldownMS != nil {
		d := time.Duration(*cooldownMS) * time.Millisecond
		cfg.Cooldown = &d
	}
	return &cfg, nil
}

// ChannelAliases lists the aliases of all commands active in a channel.
func (r *Repository) ChannelAliases(ctx context.Context, channelID int32) ([]Alias, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ca.name, ca.command_id
		FROM command_aliases ca
		JOIN command_attributes attr ON attr.id = ca.command_id
		LEFT JOIN channel_command_config cfg ON cfg.command_id = ca.command_id AND cfg.channel_id = $1
		WHERE attr.enabled AND COALESCE(cfg.active, attr.default_active)
		ORDER BY ca.name`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var aliases []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Name, &a.CommandID); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// Initialize persists a command registration unless a command with the same
// handler name already exists. Safe to call on every boot.
func (r *Repository) Initialize(ctx context.Context, reg Registration) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM command_attributes WHERE handler_name = $1)`,
			reg.HandlerName).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		var cooldownMS *int64
		if reg.Cooldown > 0 {
			ms := reg.Cooldown.Milliseconds()
			cooldownMS = &ms
		}
		var id int32
		if err := tx.QueryRow(ctx, `
			INSERT INTO command_attributes (handler_name, description, enabled, default_active, cooldown_ms, whisper_enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			reg.HandlerName, reg.Description, reg.Enabled, reg.DefaultActive, cooldownMS, reg.WhisperEnabled).Scan(&id); err != nil {
			return fmt.Errorf("command: initialize %s: %w", reg.HandlerName, err)
		}
		for _, alias := range reg.Aliases {
			if _, err := tx.Exec(ctx,
				`INSERT INTO command_aliases (name, command_id) VALUES ($1, $2)`, alias, id); err != nil {
				return fmt.Errorf("command: alias %s: %w", alias, err)
			}
		}
		for _, permissionID := range reg.PermissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO command_permissions (command_id, permission_id) VALUES ($1, $2)`, id, permissionID); err != nil {
				return fmt.Errorf("command: permission %d: %w", permissionID, err)
			}
		}
		return nil
	})
}

// ListWithAliases returns a page of commands together with their aliases
// and the total row count, for the admin API.
func (r *Repository) ListWithAliases(ctx context.Context, offset, limit int) ([]WithAliases, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM command_attributes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+attributeColumns+`,
			COALESCE((SELECT array_agg(name ORDER BY name) FROM command_aliases WHERE command_id = command_attributes.id), '{}')
		FROM command_attributes
		ORDER BY id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []WithAliases
	for rows.Next() {
		var w WithAliases
		var cooldownMS int64
		if err := rows.Scan(&w.ID, &w.HandlerName, &w.Description, &w.Enabled, &w.DefaultActive, &cooldownMS, &w.WhisperEnabled, &w.Aliases); err != nil {
			return nil, 0, err
		}
		w.Cooldown = time.Duration(cooldownMS) * time.Millisecond
		out = append(out, w)
	}
	return out, total, rows.Err()
}

// WithAliases is a command row joined with its alias names.
type WithAliases struct {
	Attributes
	Aliases []string `json:"aliases"`
}
