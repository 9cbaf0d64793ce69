// Package template renders command responses from operator-editable
// text/template sources stored alongside each command.
package template

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Source is one command's response template together with the names of the
// context values it wants injected at render time.
type Source struct {
	CommandID int32
	Text      string
	Contexts  []string
}

// SourcePort loads all template sources.
type SourcePort interface {
	TemplateSources(ctx context.Context) ([]Source, error)
}

type entry struct {
	tmpl     *template.Template
	contexts []string
}

// Renderer is an immutable snapshot of compiled templates, replaced
// wholesale on reload.
type Renderer struct {
	entries map[int32]entry
}

// Load compiles every stored template. A single broken template fails the
// load; the previous snapshot stays in service until the source is fixed.
func Load(ctx context.Context, repo SourcePort) (*Renderer, error) {
	sources, err := repo.TemplateSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("template: load sources: %w", err)
	}
	r := &Renderer{entries: make(map[int32]entry, len(sources))}
	for _, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			continue
		}
		tmpl, err := template.New(strconv.FormatInt(int64(src.CommandID), 10)).
			Option("missingkey=zero").
			Parse(src.Text)
		if err != nil {
			return nil, fmt.Errorf("template: parse command %d: %w", src.CommandID, err)
		}
		r.entries[src.CommandID] = entry{tmpl: tmpl, contexts: src.Contexts}
	}
	return r, nil
}

// Contexts returns the context value names a command's template asks for.
func (r *Renderer) Contexts(commandID int32) ([]string, bool) {
	e, ok := r.entries[commandID]
	if !ok {
		return nil, false
	}
	return e.contexts, true
}

// Render executes a command's template against the prepared data map. The
// bool result reports whether the command has a template at all.
func (r *Renderer) Render(commandID int32, data map[string]any) (string, bool, error) {
	e, ok := r.entries[commandID]
	if !ok {
		return "", false, nil
	}
	var sb strings.Builder
	if err := e.tmpl.Execute(&sb, data); err != nil {
		return "", true, fmt.Errorf("template: render command %d: %w", commandID, err)
	}
	return sb.String(), true, nil
}
