package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/permission"
)

const (
	// Permission names used by the channel command.
	permChannelsManage = "channels:manage"
	permChannelsRead   = "channels:read"
	permChannelsJoin   = "channels:join"
)

const channelUsage = "usage: info <name> | new <name> [flags] | update <name> [flags] | join <name> | part <name> (flags: --join --no-join --silent --no-silent --prefix <p> --clear-prefix)"

// ChannelAdminPort is the channel persistence the command needs.
type ChannelAdminPort interface {
	Get(ctx context.Context, name string) (channel.Channel, error)
	Create(ctx context.Context, insert channel.Insert) (channel.Channel, error)
	UpdateSettings(ctx context.Context, name string, settings channel.Settings) (channel.Channel, error)
}

// ChannelCmd inspects and manages the channels the bot operates in.
type ChannelCmd struct {
	channels ChannelAdminPort
}

// NewChannelCmd constructs the channel command.
func NewChannelCmd(channels ChannelAdminPort) *ChannelCmd {
	return &ChannelCmd{channels: channels}
}

func (*ChannelCmd) Spec() Spec {
	return Spec{
		Name:           "channel",
		Aliases:        []string{"channel", "ch"},
		Description:    "Inspect and manage channels",
		Enabled:        true,
		DefaultActive:  true,
		WhisperEnabled: true,
		PermissionSpecs: []permission.Spec{
			{
				Name:         permChannelsManage,
				Description:  "Create channels and change channel settings",
				DefaultState: permission.StateDeny,
				ImpliedBy:    []string{permission.Root},
			},
			{
				Name:         permChannelsRead,
				Description:  "Inspect channel settings",
				DefaultState: permission.StateDeny,
				ImpliedBy:    []string{permission.Root, permChannelsManage},
			},
			{
				Name:         permChannelsJoin,
				Description:  "Make the bot join or leave channels",
				DefaultState: permission.StateDeny,
				ImpliedBy:    []string{permission.Root, permChannelsManage},
			},
		},
	}
}

func (c *ChannelCmd) Run(ctx context.Context, inv *Invocation) error {
	args, err := inv.Args()
	if err != nil {
		return inv.Replyf(ctx, "could not parse arguments: %v", err)
	}
	if len(args) < 2 {
		return inv.Reply(ctx, channelUsage)
	}
	sub, name, flags := args[0], strings.ToLower(args[1]), args[2:]

	switch sub {
	case "info":
		return c.info(ctx, inv, name)
	case "new":
		return c.create(ctx, inv, name, flags)
	case "update":
		return c.update(ctx, inv, name, flags)
	case "join":
		return c.join(ctx, inv, name)
	case "part", "leave":
		return c.part(ctx, inv, name)
	default:
		return inv.Reply(ctx, channelUsage)
	}
}

func (c *ChannelCmd) info(ctx context.Context, inv *Invocation, name string) error {
	ok, err := inv.RequirePermissions(ctx, permChannelsRead)
	if err != nil || !ok {
		return err
	}
	ch, err := c.channels.Get(ctx, name)
	if errors.Is(err, channel.ErrNotFound) {
		return inv.Replyf(ctx, "channel %s is not known.", name)
	}
	if err != nil {
		return err
	}
	// No prefix means commands are switched off in the channel.
	prefix := "(none)"
	if ch.CommandPrefix != nil {
		prefix = *ch.CommandPrefix
	}
	return inv.Replyf(ctx, "channel %s: join_on_start=%t prefix=%s silent=%t", ch.Name, ch.JoinOnStart, prefix, ch.Silent)
}

func (c *ChannelCmd) create(ctx context.Context, inv *Invocation, name string, flags []string) error {
	ok, err := inv.RequirePermissions(ctx, permChannelsManage)
	if err != nil || !ok {
		return err
	}
	settings, err := parseChannelFlags(flags)
	if err != nil {
		return inv.Replyf(ctx, "%v — %s", err, channelUsage)
	}
	insert := channel.Insert{Name: name}
	if settings.JoinOnStart != nil {
		insert.JoinOnStart = *settings.JoinOnStart
	}
	if settings.Silent != nil {
		insert.Silent = *settings.Silent
	}
	if settings.CommandPrefix != nil {
		insert.CommandPrefix = *settings.CommandPrefix
	}
	ch, err := c.channels.Create(ctx, insert)
	if err != nil {
		return fmt.Errorf("create channel %s: %w", name, err)
	}
	return inv.Replyf(ctx, "created channel %s.", ch.Name)
}

func (c *ChannelCmd) update(ctx context.Context, inv *Invocation, name string, flags []string) error {
	ok, err := inv.RequirePermissions(ctx, permChannelsManage)
	if err != nil || !ok {
		return err
	}
	settings, err := parseChannelFlags(flags)
	if err != nil {
		return inv.Replyf(ctx, "%v — %s", err, channelUsage)
	}
	ch, err := c.channels.UpdateSettings(ctx, name, settings)
	if errors.Is(err, channel.ErrNotFound) {
		return inv.Replyf(ctx, "channel %s is not known.", name)
	}
	if err != nil {
		return err
	}
	// Keep the live map in step when the channel is tracked.
	if info, tracked := inv.Bot().GetChannel(ch.Name); tracked {
		inv.Bot().UpdateChannel(&bot.ChannelInfo{Data: ch, State: info.State})
	}
	return inv.Replyf(ctx, "updated channel %s.", ch.Name)
}

func (c *ChannelCmd) join(ctx context.Context, inv *Invocation, name string) error {
	ok, err := inv.RequirePermissions(ctx, permChannelsJoin)
	if err != nil || !ok {
		return err
	}
	ch, err := c.channels.Get(ctx, name)
	if errors.Is(err, channel.ErrNotFound) {
		ch, err = c.channels.Create(ctx, channel.Insert{Name: name})
	}
	if err != nil {
		return err
	}
	if err := inv.Bot().Sender.Join(ctx, ch.Name); err != nil {
		return fmt.Errorf("join %s: %w", ch.Name, err)
	}
	inv.Bot().UpdateChannel(&bot.ChannelInfo{Data: ch})
	return inv.Replyf(ctx, "joined %s.", ch.Name)
}

func (c *ChannelCmd) part(ctx context.Context, inv *Invocation, name string) error {
	ok, err := inv.RequirePermissions(ctx, permChannelsJoin)
	if err != nil || !ok {
		return err
	}
	if err := inv.Bot().Sender.Part(ctx, name); err != nil {
		return fmt.Errorf("part %s: %w", name, err)
	}
	inv.Bot().ForgetChannel(name)
	return inv.Replyf(ctx, "left %s.", name)
}

func parseChannelFlags(flags []string) (channel.Settings, error) {
	var settings channel.Settings
	setBool := func(v bool) *bool { return &v }
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case "--join":
			settings.JoinOnStart = setBool(true)
		case "--no-join":
			settings.JoinOnStart = setBool(false)
		case "--silent":
			settings.Silent = setBool(true)
		case "--no-silent":
			settings.Silent = setBool(false)
		case "--prefix":
			if i+1 >= len(flags) {
				return channel.Settings{}, errors.New("--prefix needs a value")
			}
			i++
			p := flags[i]
			pp := &p
			settings.CommandPrefix = &pp
		case "--clear-prefix":
			var empty *string
			settings.CommandPrefix = &empty
		default:
			return channel.Settings{}, fmt.Errorf("unknown flag %s", flags[i])
		}
	}
	return settings, nil
}
