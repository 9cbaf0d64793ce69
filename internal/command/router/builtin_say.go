package router

import (
	"context"

	"github.com/oxbow-chat/oxbow/internal/permission"
)

// Say repeats its arguments into the channel it was invoked in.
type Say struct{}

func (Say) Spec() Spec {
	return Spec{
		Name:                "say",
		Aliases:             []string{"say", "echo"},
		Description:         "Make the bot say something",
		Enabled:             true,
		DefaultActive:       true,
		RequiredPermissions: []string{permission.Root},
	}
}

func (Say) Run(ctx context.Context, inv *Invocation) error {
	return inv.Reply(ctx, inv.RawArgs)
}
