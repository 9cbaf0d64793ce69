// Package bot holds the shared runtime state and the event dispatch core:
// hot-swapped store snapshots, the tracked channel map and the bounded
// fan-out of events to handler groups.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/permission"
	"github.com/oxbow-chat/oxbow/internal/template"
	"github.com/oxbow-chat/oxbow/internal/user"
)

// Loaders build fresh store snapshots. The same functions serve the initial
// load and every reload triggered at runtime.
type Loaders struct {
	Permissions func(ctx context.Context) (*permission.Store, error)
	Commands    func(ctx context.Context) (*command.Store, error)
	Templates   func(ctx context.Context) (*template.Renderer, error)
}

// ChannelInfo is the tracked state of one joined channel. Values are
// treated as immutable once published; updates replace the pointer.
type ChannelInfo struct {
	Data  channel.Channel
	State *chat.RoomState
}

// Deps are the constructor inputs for Context.
type Deps struct {
	Sender  chat.Sender
	Redis   *redis.Client
	Users   *user.Service
	Logger  *slog.Logger
	Loaders Loaders
}

// Context is the state shared by every handler during the bot's lifetime.
// Store snapshots are swapped atomically so in-flight events keep the
// snapshot they started with while new events see the replacement.
type Context struct {
	Sender chat.Sender
	Redis  *redis.Client
	Users  *user.Service
	Logger *slog.Logger

	loaders Loaders

	permissions atomic.Pointer[permission.Store]
	commands    atomic.Pointer[command.Store]
	templates   atomic.Pointer[template.Renderer]

	mu       sync.RWMutex
	channels map[string]*ChannelInfo

	restart atomic.Bool
}

// NewContext builds the shared context and performs the initial store loads.
func NewContext(ctx context.Context, deps Deps) (*Context, error) {
	bc := &Context{
		Sender:   deps.Sender,
		Redis:    deps.Redis,
		Users:    deps.Users,
		Logger:   deps.Logger,
		loaders:  deps.Loaders,
		channels: make(map[string]*ChannelInfo),
	}
	if err := bc.ReloadPermissions(ctx); err != nil {
		return nil, err
	}
	if err := bc.ReloadCommands(ctx); err != nil {
		return nil, err
	}
	if err := bc.ReloadTemplates(ctx); err != nil {
		return nil, err
	}
	return bc, nil
}

// Permissions returns the current permission snapshot.
func (bc *Context) Permissions() *permission.Store { return bc.permissions.Load() }

// Commands returns the current command index snapshot.
func (bc *Context) Commands() *command.Store { return bc.commands.Load() }

// Templates returns the current template snapshot.
func (bc *Context) Templates() *template.Renderer { return bc.templates.Load() }

// ReloadPermissions loads and swaps in a fresh permission snapshot. On
// failure the previous snapshot stays in service.
func (bc *Context) ReloadPermissions(ctx context.Context) error {
	store, err := bc.loaders.Permissions(ctx)
	if err != nil {
		return err
	}
	bc.permissions.Store(store)
	return nil
}

// ReloadCommands loads and swaps in a fresh command index snapshot.
func (bc *Context) ReloadCommands(ctx context.Context) error {
	store, err := bc.loaders.Commands(ctx)
	if err != nil {
		return err
	}
	bc.commands.Store(store)
	return nil
}

// ReloadTemplates loads and swaps in a fresh template snapshot.
func (bc *Context) ReloadTemplates(ctx context.Context) error {
	renderer, err := bc.loaders.Templates(ctx)
	if err != nil {
		return err
	}
	bc.templates.Store(renderer)
	return nil
}

// GetChannel returns the tracked state of a channel, if known.
func (bc *Context) GetChannel(name string) (*ChannelInfo, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	info, ok := bc.channels[name]
	return info, ok
}

// UpdateChannel publishes a new state pointer for a channel.
func (bc *Context) UpdateChannel(info *ChannelInfo) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.channels[info.Data.Name] = info
}

// ForgetChannel drops a channel from the tracked map after a part.
func (bc *Context) ForgetChannel(name string) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.channels, name)
}

// TrackedChannels returns a snapshot of all tracked channel states.
func (bc *Context) TrackedChannels() []*ChannelInfo {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	out := make([]*ChannelInfo, 0, len(bc.channels))
	for _, info := range bc.channels {
		out = append(out, info)
	}
	return out
}

// RequestRestart asks the run loop to stop after in-flight events finish.
func (bc *Context) RequestRestart() { bc.restart.Store(true) }

// RestartRequested reports whether a restart has been requested.
func (bc *Context) RestartRequested() bool { return bc.restart.Load() }
