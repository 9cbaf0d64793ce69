// Package router turns chat messages into command invocations: prefix
// extraction, alias resolution, activation and cooldown checks and the
// permission gate, then hands off to the registered command implementation.
package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/permission"
	"github.com/oxbow-chat/oxbow/internal/platform/cache"
)

const (
	channelCfgKind = "channel_command_config"
	channelCfgTTL  = 5 * time.Minute
)

// Spec describes a command implementation to the router: how it is invoked,
// its default attributes, the permissions it requires and the permissions
// it wants to exist.
type Spec struct {
	Name           string
	Aliases        []string
	Description    string
	Enabled        bool
	DefaultActive  bool
	Cooldown       time.Duration
	WhisperEnabled bool
	// RequiredPermissions are permission names the sender must satisfy,
	// each expanded with its implying permissions and ANDed together.
	RequiredPermissions []string
	// PermissionSpecs are ensured to exist on every boot.
	PermissionSpecs []permission.Spec
}

// CommandHandler is one command implementation.
type CommandHandler interface {
	Spec() Spec
	Run(ctx context.Context, inv *Invocation) error
}

// ChannelConfigPort loads per-channel command overrides.
type ChannelConfigPort interface {
	ChannelConfig(ctx context.Context, channelID, commandID int32) (*command.ChannelConfig, error)
}

// Router implements bot.Handler for message and whisper events.
type Router struct {
	handlers   map[string]CommandHandler
	channelCfg ChannelConfigPort
	cmdPerms   *permission.SetCache
	userPerms  *permission.UserCache
}

// New builds a router.
func New(channelCfg ChannelConfigPort, cmdPerms *permission.SetCache, userPerms *permission.UserCache) *Router {
	return &Router{
		handlers:   make(map[string]CommandHandler),
		channelCfg: channelCfg,
		cmdPerms:   cmdPerms,
		userPerms:  userPerms,
	}
}

// Register adds a command implementation under its spec name.
func (r *Router) Register(handlers ...CommandHandler) {
	for _, h := range handlers {
		r.handlers[h.Spec().Name] = h
	}
}

// Handlers returns every registered command implementation.
func (r *Router) Handlers() []CommandHandler {
	out := make([]CommandHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	return out
}

func (r *Router) Name() string { return "command_router" }

// HandleEvent routes one message or whisper. Everything that is not a
// well-formed, permitted command invocation is dropped without a reply;
// only a failed permission check is answered, politely.
func (r *Router) HandleEvent(ctx context.Context, bc *bot.Context, ev *bot.Event) error {
	if ev.Kind != chat.KindMessage && ev.Kind != chat.KindWhisper {
		return nil
	}

	var info *bot.ChannelInfo
	if ev.Kind == chat.KindMessage {
		var err error
		info, err = ev.ChannelInfo(bc)
		if err != nil {
			bc.Logger.Debug("message for untracked channel", "channel", ev.Channel)
			return nil
		}
		if info.Data.Silent {
			return nil
		}
	}

	alias, rawArgs, ok := r.extract(ev, info)
	if !ok {
		return nil
	}

	attrs, ok := bc.Commands().GetByAlias(alias)
	if !ok || !attrs.Enabled {
		return nil
	}
	if ev.Kind == chat.KindWhisper && !attrs.WhisperEnabled {
		return nil
	}

	handler, ok := r.handlers[attrs.HandlerName]
	if !ok {
		bc.Logger.Error("alias resolves to unregistered handler",
			"alias", alias, "handler", attrs.HandlerName)
		return nil
	}

	var cfg *command.ChannelConfig
	if info != nil {
		var err error
		cfg, err = r.channelConfig(ctx, bc, info.Data.ID, attrs.ID)
		if err != nil {
			return fmt.Errorf("channel config for %s: %w", alias, err)
		}
		if !attrs.ActiveIn(cfg) {
			return nil
		}
	}

	scope := cooldownScope(ev)
	var cooldownOverride *time.Duration
	if cfg != nil {
		cooldownOverride = cfg.Cooldown
	}
	available, err := attrs.CooldownAvailable(ctx, bc.Redis, scope, cooldownOverride)
	if err != nil {
		return fmt.Errorf("cooldown check for %s: %w", alias, err)
	}
	if !available {
		bypass, err := r.senderSatisfies(ctx, bc, ev, []string{permission.BypassCooldowns})
		if err != nil {
			return fmt.Errorf("cooldown bypass check for %s: %w", alias, err)
		}
		if !bypass {
			return nil
		}
	}

	// The window starts before the permission check, so a denied sender
	// cannot retry the command at full rate.
	if err := attrs.ResetCooldown(ctx, bc.Redis, scope, cooldownOverride); err != nil {
		return fmt.Errorf("reset cooldown for %s: %w", alias, err)
	}

	inv := &Invocation{
		bc:      bc,
		ev:      ev,
		router:  r,
		Alias:   alias,
		RawArgs: rawArgs,
		Attrs:   attrs,
		Channel: info,
	}

	set, err := r.cmdPerms.ForCommand(ctx, bc.Permissions(), attrs.ID)
	if err != nil {
		return fmt.Errorf("permission set for %s: %w", alias, err)
	}
	if len(set.Requirement.Required) > 0 {
		allowed, err := r.senderCheck(ctx, bc, ev, set.Requirement)
		if err != nil {
			return fmt.Errorf("permission check for %s: %w", alias, err)
		}
		if !allowed {
			return inv.Reply(ctx, "sorry, you don't have permission to do that.")
		}
	}

	if err := handler.Run(ctx, inv); err != nil {
		return fmt.Errorf("command %s: %w", alias, err)
	}
	return nil
}

// extract pulls the alias and raw argument string out of a message. Channel
// messages need the channel's configured prefix; a channel without one has
// commands switched off. Whispers carry no prefix, the first token is the
// command name.
func (r *Router) extract(ev *bot.Event, info *bot.ChannelInfo) (alias, rawArgs string, ok bool) {
	text := ev.Message
	if ev.Kind == chat.KindMessage {
		if info == nil || info.Data.CommandPrefix == nil || *info.Data.CommandPrefix == "" {
			return "", "", false
		}
		prefix := *info.Data.CommandPrefix
		if !strings.HasPrefix(text, prefix) {
			return "", "", false
		}
		text = text[len(prefix):]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	alias, rawArgs, _ = strings.Cut(text, " ")
	return alias, strings.TrimSpace(rawArgs), alias != ""
}

func cooldownScope(ev *bot.Event) string {
	if ev.Kind == chat.KindWhisper && ev.Sender != nil {
		return "whisper:" + ev.Sender.Login
	}
	return "channel:" + ev.Channel
}

type channelCfgEnvelope struct {
	Config *command.ChannelConfig `json:"config"`
}

// channelConfig reads the per-channel override through the cache; the
// absence of an override row is cached too.
func (r *Router) channelConfig(ctx context.Context, bc *bot.Context, channelID, commandID int32) (*command.ChannelConfig, error) {
	key := cache.Key("chancfg",
		strconv.FormatInt(int64(channelID), 10),
		strconv.FormatInt(int64(commandID), 10))
	var cached channelCfgEnvelope
	found, err := cache.GetJSON(ctx, bc.Redis, channelCfgKind, key, &cached)
	if err != nil {
		return nil, err
	}
	if found {
		return cached.Config, nil
	}

	cfg, err := r.channelCfg.ChannelConfig(ctx, channelID, commandID)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, bc.Redis, channelCfgKind, key, channelCfgEnvelope{Config: cfg}, channelCfgTTL); err != nil {
		return nil, err
	}
	return cfg, nil
}

// senderCheck resolves the sender and tests a requirement against the
// permissions they hold. Events without user identity satisfy nothing.
func (r *Router) senderCheck(ctx context.Context, bc *bot.Context, ev *bot.Event, req permission.Requirement) (bool, error) {
	u, err := ev.User(ctx, bc)
	if err != nil {
		if errors.Is(err, bot.ErrNoUser) {
			return false, nil
		}
		return false, err
	}
	held, err := r.userPerms.AllowedIDs(ctx, u.ID)
	if err != nil {
		return false, err
	}
	return req.Check(held), nil
}

// senderSatisfies checks named permissions with implication expansion.
func (r *Router) senderSatisfies(ctx context.Context, bc *bot.Context, ev *bot.Event, names []string) (bool, error) {
	req, err := bc.Permissions().RequirementForNames(names)
	if err != nil {
		return false, err
	}
	return r.senderCheck(ctx, bc, ev, req)
}
