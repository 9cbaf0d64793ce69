package user

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oxbow-chat/oxbow/internal/chat"
)

type countingRepo struct {
	gets, inserts, updates int
	users                  map[int64]User
}

func newCountingRepo() *countingRepo {
	return &countingRepo{users: make(map[int64]User)}
}

func (r *countingRepo) GetByPlatformID(ctx context.Context, platformID int64) (User, error) {
	r.gets++
	u, ok := r.users[platformID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *countingRepo) Insert(ctx context.Context, platformID int64, login, displayName string) (User, error) {
	r.inserts++
	u := User{ID: int64(len(r.users) + 1), PlatformID: platformID, Login: login, DisplayName: displayName}
	r.users[platformID] = u
	return u, nil
}

func (r *countingRepo) UpdateIdentity(ctx context.Context, platformID int64, login, displayName string) (User, error) {
	r.updates++
	u := r.users[platformID]
	u.PreviousLogins = append(u.PreviousLogins, u.Login)
	u.Login = login
	u.DisplayName = displayName
	r.users[platformID] = u
	return u, nil
}

func newService(t *testing.T, repo RepositoryPort) (*miniredis.Miniredis, *Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewService(client, repo)
}

func TestGetReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	repo := newCountingRepo()
	repo.users[42] = User{ID: 1, PlatformID: 42, Login: "someone", DisplayName: "Someone"}
	mr, svc := newService(t, repo)

	u, err := svc.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "someone", u.Login)
	require.Equal(t, 1, repo.gets)

	// Second read is served from the cache.
	_, err = svc.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 1, repo.gets)

	mr.FastForward(11 * time.Minute)
	_, err = svc.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 2, repo.gets)
}

func TestGetOrUpsertInsertsUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := newCountingRepo()
	_, svc := newService(t, repo)

	u, err := svc.GetOrUpsert(ctx, chat.UserInfo{PlatformID: 42, Login: "someone", DisplayName: "Someone"})
	require.NoError(t, err)
	require.Equal(t, int64(42), u.PlatformID)
	require.Equal(t, 1, repo.inserts)
}

func TestGetOrUpsertTracksIdentityChange(t *testing.T) {
	ctx := context.Background()
	repo := newCountingRepo()
	repo.users[42] = User{ID: 1, PlatformID: 42, Login: "oldname", DisplayName: "OldName"}
	_, svc := newService(t, repo)

	// Unchanged identity touches nothing.
	_, err := svc.GetOrUpsert(ctx, chat.UserInfo{PlatformID: 42, Login: "oldname", DisplayName: "OldName"})
	require.NoError(t, err)
	require.Zero(t, repo.updates)

	u, err := svc.GetOrUpsert(ctx, chat.UserInfo{PlatformID: 42, Login: "newname", DisplayName: "NewName"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.updates)
	require.Equal(t, "newname", u.Login)
	require.Equal(t, []string{"oldname"}, u.PreviousLogins)

	// The refreshed row replaced the cached one.
	cached, err := svc.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "newname", cached.Login)
}
