package router

import (
	"context"
	"strings"

	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/permission"
)

const (
	permCommandsManage = "commands:manage"
	permCommandsRead   = "commands:read"
)

// ChannelAliasPort lists the aliases active in a channel.
type ChannelAliasPort interface {
	ChannelAliases(ctx context.Context, channelID int32) ([]command.Alias, error)
}

// Commands lists the commands available where it was invoked.
type Commands struct {
	aliases ChannelAliasPort
}

// NewCommandsCmd constructs the commands command.
func NewCommandsCmd(aliases ChannelAliasPort) *Commands {
	return &Commands{aliases: aliases}
}

func (*Commands) Spec() Spec {
	return Spec{
		Name:          "commands",
		Aliases:       []string{"commands", "cmds"},
		Description:   "List the commands available in this channel",
		Enabled:       true,
		DefaultActive: true,
		PermissionSpecs: []permission.Spec{
			{
				Name:         permCommandsManage,
				Description:  "Manage commands and their templates",
				DefaultState: permission.StateDeny,
				ImpliedBy:    []string{permission.Root},
			},
			{
				Name:         permCommandsRead,
				Description:  "List available commands",
				DefaultState: permission.StateAllow,
				ImpliedBy:    []string{permission.Root, permCommandsManage},
			},
		},
		RequiredPermissions: []string{permCommandsRead},
	}
}

func (c *Commands) Run(ctx context.Context, inv *Invocation) error {
	if inv.Channel == nil {
		return inv.Reply(ctx, "commands can only be listed from a channel.")
	}
	aliases, err := c.aliases.ChannelAliases(ctx, inv.Channel.Data.ID)
	if err != nil {
		return err
	}
	if len(aliases) == 0 {
		return inv.Reply(ctx, "no commands are active here.")
	}
	names := make([]string, len(aliases))
	for i, a := range aliases {
		names[i] = a.Name
	}
	return inv.Reply(ctx, "available commands: "+strings.Join(names, ", "))
}
