package permission

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	perms   []Permission
	implied map[int32][]int32
}

func (f *fakeCatalog) All(ctx context.Context) ([]Permission, error) { return f.perms, nil }

func (f *fakeCatalog) ImpliedBy(ctx context.Context) (map[int32][]int32, error) {
	return f.implied, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	catalog := &fakeCatalog{
		perms: []Permission{
			{ID: 1, Name: "root", DefaultState: StateDeny},
			{ID: 2, Name: "channels:manage", DefaultState: StateDeny},
			{ID: 3, Name: "channels:read", DefaultState: StateDeny},
			{ID: 4, Name: "commands:read", DefaultState: StateAllow},
		},
		implied: map[int32][]int32{
			// root implies manage, manage implies read: one hop each.
			2: {1},
			3: {1, 2},
		},
	}
	store, err := Load(context.Background(), catalog)
	require.NoError(t, err)
	return store
}

func TestRequirementImplication(t *testing.T) {
	store := newTestStore(t)

	req := store.Requirement([]int32{3})
	require.True(t, req.Check([]int32{3}))
	require.True(t, req.Check([]int32{1}), "implying permission satisfies the requirement")
	require.True(t, req.Check([]int32{2}))
	require.False(t, req.Check([]int32{4}))
	require.False(t, req.Check(nil))
}

func TestRequirementIsOneHopOnly(t *testing.T) {
	// Edges are read as stored: manage is implied by root, and read by both.
	// If only the root->manage edge existed, holding root would not satisfy
	// read. Implication chains are flattened at write time, not resolved
	// transitively here.
	catalog := &fakeCatalog{
		perms: []Permission{
			{ID: 1, Name: "root", DefaultState: StateDeny},
			{ID: 2, Name: "manage", DefaultState: StateDeny},
			{ID: 3, Name: "read", DefaultState: StateDeny},
		},
		implied: map[int32][]int32{
			2: {1},
			3: {2},
		},
	}
	store, err := Load(context.Background(), catalog)
	require.NoError(t, err)

	req := store.Requirement([]int32{3})
	require.True(t, req.Check([]int32{2}))
	require.False(t, req.Check([]int32{1}), "two-hop implication is intentionally not resolved")
}

func TestRequirementAndSemantics(t *testing.T) {
	store := newTestStore(t)

	req := store.Requirement([]int32{2, 4})
	require.True(t, req.Check([]int32{2, 4}))
	require.True(t, req.Check([]int32{1, 4}))
	require.False(t, req.Check([]int32{2}), "every group must be satisfied")
}

func TestEmptyRequirementIsVacuouslySatisfied(t *testing.T) {
	store := newTestStore(t)

	req := store.Requirement(nil)
	require.True(t, req.Check(nil))
	require.True(t, req.Check([]int32{99}))
}

func TestRequirementGroupsAreDeterministic(t *testing.T) {
	store := newTestStore(t)

	a := store.Requirement([]int32{3})
	b := store.Requirement([]int32{3})
	require.Equal(t, a, b)
	require.Equal(t, []int32{1, 2, 3}, a.Required[0], "groups are sorted")
}

func TestGetAllUnknownName(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAll([]string{"root", "nope:missing"})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "nope:missing", nf.Name)
}

type countingCommandPermissions struct {
	ids   []int32
	calls int
}

func (c *countingCommandPermissions) CommandPermissionIDs(ctx context.Context, commandID int32) ([]int32, error) {
	c.calls++
	return c.ids, nil
}

func TestSetCacheReadsThrough(t *testing.T) {
	store := newTestStore(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingCommandPermissions{ids: []int32{3}}
	sets := NewSetCache(client, repo)
	ctx := context.Background()

	first, err := sets.ForCommand(ctx, store, 7)
	require.NoError(t, err)
	require.Equal(t, int32(7), first.CommandID)
	require.Equal(t, 1, repo.calls)

	second, err := sets.ForCommand(ctx, store, 7)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls, "second lookup is served from cache")

	mr.FastForward(6 * time.Minute)

	_, err = sets.ForCommand(ctx, store, 7)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls, "expired entry is resolved again")
}
