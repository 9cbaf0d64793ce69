package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oxbow-chat/oxbow/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for permissions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// All returns the full permission catalog.
func (r *Repository) All(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description, ''), default_state FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DefaultState); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ImpliedBy returns, for each permission id, the ids whose holders satisfy
// it. One level of edges, exactly as stored.
func (r *Repository) ImpliedBy(ctx context.Context) (map[int32][]int32, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission_id, array_agg(implied_by_id) FROM implied_permissions GROUP BY permission_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	implied := make(map[int32][]int32)
	for rows.Next() {
		var id int32
		var by []int32
		if err := rows.Scan(&id, &by); err != nil {
			return nil, err
		}
		implied[id] = by
	}
	return implied, rows.Err()
}

// CommandPermissionIDs returns the permission ids attached to a command.
func (r *Repository) CommandPermissionIDs(ctx context.Context, commandID int32) ([]int32, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission_id FROM command_permissions WHERE command_id = $1 ORDER BY permission_id`, commandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserAllowedIDs returns the ids of all permissions that resolve to allow
// for the user: an explicit override wins, otherwise the permission's
// default state applies.
func (r *Repository) UserAllowedIDs(ctx context.Context, userID int64) ([]int32, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id
		FROM permissions p
		LEFT JOIN user_permissions up ON up.permission_id = p.id AND up.user_id = $1
		WHERE COALESCE(up.state, p.default_state) = 'allow'
		ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ensure inserts any permissions from specs that do not exist yet, together
// with their implication edges, and returns how many were added. Safe to
// call on every boot, including from multiple instances at once.
func (r *Repository) Ensure(ctx context.Context, specs []Spec) (int, error) {
	added := 0
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, spec := range specs {
			var id int32
			err := tx.QueryRow(ctx,
				`INSERT INTO permissions (name, description, default_state) VALUES ($1, $2, $3)
				 ON CONFLICT (name) DO NOTHING RETURNING id`,
				spec.Name, spec.Description, spec.DefaultState).Scan(&id)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("permission: ensure %s: %w", spec.Name, err)
			}
			added++
			for _, impliedBy := range spec.ImpliedBy {
				if _, err := tx.Exec(ctx,
					`INSERT INTO implied_permissions (permission_id, implied_by_id)
					 SELECT $1, id FROM permissions WHERE name = $2`,
					id, impliedBy); err != nil {
					if isUniqueViolation(err) {
						continue
					}
					return fmt.Errorf("permission: imply %s by %s: %w", spec.Name, impliedBy, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// DefaultSpecs are the permissions every deployment needs regardless of
// which commands are registered.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:         Root,
			Description:  "Super admin override",
			DefaultState: StateDeny,
		},
		{
			Name:         BypassCooldowns,
			Description:  "Use commands without waiting for cooldowns",
			DefaultState: StateDeny,
			ImpliedBy:    []string{Root},
		},
	}
}
