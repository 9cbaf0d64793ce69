package template

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes template sources on the command rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TemplateSources returns every command that has a template set.
func (r *Repository) TemplateSources(ctx context.Context) ([]Source, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template, COALESCE(template_context, '[]'::jsonb)
		FROM command_attributes
		WHERE template IS NOT NULL
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sources []Source
	for rows.Next() {
		var src Source
		var rawContexts []byte
		if err := rows.Scan(&src.CommandID, &src.Text, &rawContexts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawContexts, &src.Contexts); err != nil {
			return nil, fmt.Errorf("template: decode contexts for command %d: %w", src.CommandID, err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Update sets or clears a command's template text.
func (r *Repository) Update(ctx context.Context, commandID int32, text *string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE command_attributes SET template = $2 WHERE id = $1`, commandID, text)
	return err
}

// UpdateContexts replaces the list of context values a command's template
// receives.
func (r *Repository) UpdateContexts(ctx context.Context, commandID int32, contexts []string) error {
	raw, err := json.Marshal(contexts)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE command_attributes SET template_context = $2 WHERE id = $1`, commandID, raw)
	return err
}
