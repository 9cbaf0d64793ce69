package command

import (
	"context"
	"fmt"
)

// IndexPort is the data access needed to load the in-memory alias index.
type IndexPort interface {
	Aliases(ctx context.Context) ([]Alias, error)
	AllAttributes(ctx context.Context) ([]Attributes, error)
}

// Store is an immutable snapshot of the alias index and command attributes.
// It is replaced wholesale on reload, never mutated.
type Store struct {
	aliases  map[string]int32
	commands map[int32]Attributes
}

// Load reads all aliases and attributes.
func Load(ctx context.Context, repo IndexPort) (*Store, error) {
	aliases, err := repo.Aliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("command: load aliases: %w", err)
	}
	attrs, err := repo.AllAttributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("command: load attributes: %w", err)
	}
	store := &Store{
		aliases:  make(map[string]int32, len(aliases)),
		commands: make(map[int32]Attributes, len(attrs)),
	}
	for _, a := range aliases {
		store.aliases[a.Name] = a.CommandID
	}
	for _, a := range attrs {
		store.commands[a.ID] = a
	}
	return store, nil
}

// GetByAlias resolves an alias to the command it triggers.
func (s *Store) GetByAlias(name string) (Attributes, bool) {
	id, ok := s.aliases[name]
	if !ok {
		return Attributes{}, false
	}
	attrs, ok := s.commands[id]
	return attrs, ok
}
