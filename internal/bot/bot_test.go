package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/permission"
	"github.com/oxbow-chat/oxbow/internal/template"
	"github.com/oxbow-chat/oxbow/internal/user"
)

type countingUserRepo struct {
	mu      sync.Mutex
	gets    int
	inserts int
	users   map[int64]user.User
}

func newCountingUserRepo() *countingUserRepo {
	return &countingUserRepo{users: make(map[int64]user.User)}
}

func (r *countingUserRepo) GetByPlatformID(ctx context.Context, platformID int64) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.users[platformID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *countingUserRepo) Insert(ctx context.Context, platformID int64, login, displayName string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	u := user.User{ID: int64(len(r.users) + 1), PlatformID: platformID, Login: login, DisplayName: displayName}
	r.users[platformID] = u
	return u, nil
}

func (r *countingUserRepo) UpdateIdentity(ctx context.Context, platformID int64, login, displayName string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[platformID]
	u.Login = login
	u.DisplayName = displayName
	r.users[platformID] = u
	return u, nil
}

func testLoaders() Loaders {
	return Loaders{
		Permissions: func(ctx context.Context) (*permission.Store, error) {
			return permission.Load(ctx, emptyCatalog{})
		},
		Commands: func(ctx context.Context) (*command.Store, error) {
			return command.Load(ctx, &staticIndex{})
		},
		Templates: func(ctx context.Context) (*template.Renderer, error) {
			return template.Load(ctx, staticTemplates{})
		},
	}
}

type staticIndex struct {
	aliases []command.Alias
	attrs   []command.Attributes
}

func (s *staticIndex) Aliases(ctx context.Context) ([]command.Alias, error) { return s.aliases, nil }
func (s *staticIndex) AllAttributes(ctx context.Context) ([]command.Attributes, error) {
	return s.attrs, nil
}

type emptyCatalog struct{}

func (emptyCatalog) All(ctx context.Context) ([]permission.Permission, error) { return nil, nil }
func (emptyCatalog) ImpliedBy(ctx context.Context) (map[int32][]int32, error) { return nil, nil }

type staticTemplates struct{}

func (staticTemplates) TemplateSources(ctx context.Context) ([]template.Source, error) {
	return nil, nil
}

func newTestContext(t *testing.T, repo user.RepositoryPort) *Context {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pipe := chat.NewPipe(16)
	t.Cleanup(func() { _ = pipe.Close() })

	bc, err := NewContext(context.Background(), Deps{
		Sender:  pipe,
		Redis:   client,
		Users:   user.NewService(client, repo),
		Logger:  slog.New(slog.DiscardHandler),
		Loaders: testLoaders(),
	})
	require.NoError(t, err)
	return bc
}

func messageEvent(channel, login, text string) *chat.Event {
	return &chat.Event{
		Kind:       chat.KindMessage,
		Channel:    channel,
		Message:    text,
		Sender:     &chat.UserInfo{PlatformID: 42, Login: login, DisplayName: login},
		ReceivedAt: time.Now(),
	}
}

func TestLazyUserResolvedOnce(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)
	ev := NewEvent(messageEvent("somechannel", "someone", "hi"))

	var wg sync.WaitGroup
	results := make([]user.User, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := ev.User(context.Background(), bc)
			require.NoError(t, err)
			results[i] = u
		}(i)
	}
	wg.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, 1, repo.inserts, "concurrent resolution must upsert once")
	for _, u := range results {
		require.Equal(t, results[0], u)
	}
}

func TestLazyUserErrorMemoized(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)
	ev := NewEvent(&chat.Event{Kind: chat.KindRoomState, Channel: "somechannel"})

	_, err := ev.User(context.Background(), bc)
	require.ErrorIs(t, err, ErrNoUser)
	_, err = ev.User(context.Background(), bc)
	require.ErrorIs(t, err, ErrNoUser)
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Zero(t, repo.gets)
}

type recordingHandler struct {
	name string
	mu   *sync.Mutex
	log  *[]string
	err  error
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) HandleEvent(ctx context.Context, bc *Context, ev *Event) error {
	h.mu.Lock()
	*h.log = append(*h.log, h.name)
	h.mu.Unlock()
	return h.err
}

func TestDispatchGroupsIsolatedAndOrdered(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)

	var mu sync.Mutex
	var log []string
	rec := func(name string, err error) *recordingHandler {
		return &recordingHandler{name: name, mu: &mu, log: &log, err: err}
	}

	boom := errors.New("boom")
	d := NewDispatcher(5)
	d.AddGroup(MatchAll, rec("a1", nil), rec("a2", nil))
	d.AddGroup(MatchAll, rec("b1", boom), rec("b2", nil))
	d.AddGroup(MatchKinds(chat.KindWhisper), rec("w1", nil))

	err := d.Dispatch(context.Background(), bc, NewEvent(messageEvent("c", "u", "hi")))
	require.ErrorIs(t, err, boom)

	mu.Lock()
	defer mu.Unlock()
	// First group ran to completion in order despite the other group failing.
	require.Contains(t, log, "a1")
	require.Contains(t, log, "a2")
	require.Less(t, indexOf(log, "a1"), indexOf(log, "a2"))
	// Failing handler stops only its own group.
	require.Contains(t, log, "b1")
	require.NotContains(t, log, "b2")
	// Matcher filtered the whisper group out.
	require.NotContains(t, log, "w1")
}

func indexOf(log []string, name string) int {
	for i, v := range log {
		if v == name {
			return i
		}
	}
	return -1
}

func TestReloadSwapsSnapshot(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)

	before := bc.Commands()
	_, ok := before.GetByAlias("say")
	require.False(t, ok)

	bc.loaders.Commands = func(ctx context.Context) (*command.Store, error) {
		return command.Load(ctx, &staticIndex{
			aliases: []command.Alias{{Name: "say", CommandID: 1}},
			attrs:   []command.Attributes{{ID: 1, HandlerName: "say", Enabled: true, DefaultActive: true}},
		})
	}
	require.NoError(t, bc.ReloadCommands(context.Background()))

	_, ok = bc.Commands().GetByAlias("say")
	require.True(t, ok)
	// The old snapshot is untouched for anyone still holding it.
	_, ok = before.GetByAlias("say")
	require.False(t, ok)
}

func TestReloadFailureKeepsOldSnapshot(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)
	current := bc.Commands()

	bc.loaders.Commands = func(ctx context.Context) (*command.Store, error) {
		return nil, errors.New("db down")
	}
	require.Error(t, bc.ReloadCommands(context.Background()))
	require.Same(t, current, bc.Commands())
}

type countingHandler struct {
	seen atomic.Int64
}

func (h *countingHandler) Name() string { return "counter" }

func (h *countingHandler) HandleEvent(ctx context.Context, bc *Context, ev *Event) error {
	h.seen.Add(1)
	return nil
}

func TestRunRestartDrainsInFlight(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)

	pipe := chat.NewPipe(16)
	h := &countingHandler{}
	d := NewDispatcher(5)
	d.AddGroup(MatchAll, h)

	done := make(chan struct{})
	var result RunResult
	go func() {
		defer close(done)
		result, _ = Run(context.Background(), bc, pipe, d, 10)
	}()

	for i := 0; i < 3; i++ {
		pipe.Deliver(messageEvent("c", "u", "hi"))
	}
	require.Eventually(t, func() bool { return h.seen.Load() == 3 }, 5*time.Second, 5*time.Millisecond)

	bc.RequestRestart()
	pipe.Deliver(messageEvent("c", "u", "one more"))
	_ = pipe.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not stop")
	}
	require.Equal(t, RunRestart, result)
	require.GreaterOrEqual(t, h.seen.Load(), int64(3))
}

func TestRunStopsWhenTransportCloses(t *testing.T) {
	repo := newCountingUserRepo()
	bc := newTestContext(t, repo)

	pipe := chat.NewPipe(16)
	d := NewDispatcher(5)

	pipe.Deliver(messageEvent("c", "u", "hi"))
	_ = pipe.Close()

	result, err := Run(context.Background(), bc, pipe, d, 10)
	require.Equal(t, RunStopped, result)
	require.NoError(t, err)
}
