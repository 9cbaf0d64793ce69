package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested user does not exist.
var ErrNotFound = errors.New("user: not found")

const userColumns = `id, platform_id, login, display_name, previous_logins, previous_display_names, updated_at, created_at`

// Repository provides PostgreSQL backed persistence for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.PlatformID, &u.Login, &u.DisplayName, &u.PreviousLogins, &u.PreviousDisplayNames, &u.UpdatedAt, &u.CreatedAt)
	return u, err
}

// GetByPlatformID returns the user for a platform user id, or ErrNotFound.
func (r *Repository) GetByPlatformID(ctx context.Context, platformID int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE platform_id = $1`, platformID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Insert creates a new user row.
func (r *Repository) Insert(ctx context.Context, platformID int64, login, displayName string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (platform_id, login, display_name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		platformID, login, displayName))
}

// UpdateIdentity overwrites login and display name, recording the previous
// values in the history arrays when they changed.
func (r *Repository) UpdateIdentity(ctx context.Context, platformID int64, login, displayName string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			previous_logins = CASE WHEN login <> $2 THEN array_append(previous_logins, login) ELSE previous_logins END,
			previous_display_names = CASE WHEN display_name <> $3 AND display_name <> '' THEN array_append(previous_display_names, display_name) ELSE previous_display_names END,
			login = $2,
			display_name = $3,
			updated_at = now()
		WHERE platform_id = $1
		RETURNING `+userColumns,
		platformID, login, displayName))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}
