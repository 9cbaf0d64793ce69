package router

import (
	"context"

	"github.com/oxbow-chat/oxbow/internal/permission"
)

// Restart asks the run loop to stop after in-flight events finish so the
// process supervisor can bring the bot back up fresh.
type Restart struct{}

func (Restart) Spec() Spec {
	return Spec{
		Name:                "restart",
		Aliases:             []string{"restart"},
		Description:         "Restart the bot",
		Enabled:             true,
		DefaultActive:       true,
		WhisperEnabled:      true,
		RequiredPermissions: []string{permission.Root},
	}
}

func (Restart) Run(ctx context.Context, inv *Invocation) error {
	if err := inv.Reply(ctx, "restarting."); err != nil {
		return err
	}
	inv.Bot().RequestRestart()
	return nil
}
