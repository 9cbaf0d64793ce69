package router

import (
	"context"

	"github.com/oxbow-chat/oxbow/internal/permission"
)

// Reload swaps in fresh permission, command and template snapshots without
// a restart.
type Reload struct{}

func (Reload) Spec() Spec {
	return Spec{
		Name:                "reload",
		Aliases:             []string{"reload"},
		Description:         "Reload commands, permissions and templates from the database",
		Enabled:             true,
		DefaultActive:       true,
		WhisperEnabled:      true,
		RequiredPermissions: []string{permission.Root},
	}
}

func (Reload) Run(ctx context.Context, inv *Invocation) error {
	bc := inv.Bot()
	if err := bc.ReloadPermissions(ctx); err != nil {
		return err
	}
	if err := bc.ReloadCommands(ctx); err != nil {
		return err
	}
	if err := bc.ReloadTemplates(ctx); err != nil {
		return err
	}
	return inv.Reply(ctx, "reloaded.")
}
