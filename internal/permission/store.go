package permission

import (
	"context"
	"fmt"
)

// CatalogPort is the data access needed to load the in-memory store.
type CatalogPort interface {
	All(ctx context.Context) ([]Permission, error)
	ImpliedBy(ctx context.Context) (map[int32][]int32, error)
}

// Store is an immutable snapshot of the permission catalog and implication
// graph. It is replaced wholesale on reload, never mutated.
type Store struct {
	byName    map[string]Permission
	impliedBy map[int32][]int32
}

// Load reads the full catalog and implication edges.
func Load(ctx context.Context, repo CatalogPort) (*Store, error) {
	perms, err := repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("permission: load catalog: %w", err)
	}
	implied, err := repo.ImpliedBy(ctx)
	if err != nil {
		return nil, fmt.Errorf("permission: load implications: %w", err)
	}
	byName := make(map[string]Permission, len(perms))
	for _, p := range perms {
		byName[p.Name] = p
	}
	return &Store{byName: byName, impliedBy: implied}, nil
}

// Get returns the permission registered under name.
func (s *Store) Get(name string) (Permission, error) {
	p, ok := s.byName[name]
	if !ok {
		return Permission{}, &NotFoundError{Name: name}
	}
	return p, nil
}

// GetAll resolves a list of names, failing on the first unknown one.
func (s *Store) GetAll(names []string) ([]Permission, error) {
	out := make([]Permission, 0, len(names))
	for _, name := range names {
		p, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Requirement resolves permission ids into the AND-of-ORs requirement. Each
// OR-group is the id itself plus every id that implies it, one implication
// hop deep: implications are expected to be flattened at write time, so no
// transitive closure is taken. Groups are sorted for deterministic cache
// keys.
func (s *Store) Requirement(ids []int32) Requirement {
	required := make([][]int32, 0, len(ids))
	for _, id := range ids {
		group := append([]int32{id}, s.impliedBy[id]...)
		sortGroup(group)
		required = append(required, group)
	}
	return Requirement{Required: required}
}

// RequirementForNames is Requirement over named permissions.
func (s *Store) RequirementForNames(names []string) (Requirement, error) {
	perms, err := s.GetAll(names)
	if err != nil {
		return Requirement{}, err
	}
	ids := make([]int32, len(perms))
	for i, p := range perms {
		ids[i] = p.ID
	}
	return s.Requirement(ids), nil
}
