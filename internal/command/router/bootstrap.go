package router

import (
	"context"
	"fmt"

	"github.com/oxbow-chat/oxbow/internal/bot"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/permission"
)

// PermissionBootstrapPort ensures permissions exist.
type PermissionBootstrapPort interface {
	Ensure(ctx context.Context, specs []permission.Spec) (int, error)
}

// CommandBootstrapPort persists command registrations.
type CommandBootstrapPort interface {
	Initialize(ctx context.Context, reg command.Registration) error
}

// Bootstrap makes the database match the registered commands: it ensures
// every declared permission exists and persists a registration for every
// command not seen before, then refreshes the in-memory snapshots.
// Idempotent, runs on every boot.
func Bootstrap(ctx context.Context, bc *bot.Context, r *Router, perms PermissionBootstrapPort, cmds CommandBootstrapPort) error {
	specs := permission.DefaultSpecs()
	for _, h := range r.Handlers() {
		specs = append(specs, h.Spec().PermissionSpecs...)
	}
	added, err := perms.Ensure(ctx, specs)
	if err != nil {
		return fmt.Errorf("ensure permissions: %w", err)
	}
	if added > 0 {
		bc.Logger.Info("created missing permissions", "count", added)
	}
	if err := bc.ReloadPermissions(ctx); err != nil {
		return fmt.Errorf("reload permissions: %w", err)
	}

	store := bc.Permissions()
	for _, h := range r.Handlers() {
		spec := h.Spec()
		required, err := store.GetAll(spec.RequiredPermissions)
		if err != nil {
			return fmt.Errorf("resolve permissions for %s: %w", spec.Name, err)
		}
		ids := make([]int32, len(required))
		for i, p := range required {
			ids[i] = p.ID
		}
		reg := command.Registration{
			HandlerName:    spec.Name,
			Description:    spec.Description,
			Enabled:        spec.Enabled,
			DefaultActive:  spec.DefaultActive,
			Cooldown:       spec.Cooldown,
			WhisperEnabled: spec.WhisperEnabled,
			PermissionIDs:  ids,
			Aliases:        spec.Aliases,
		}
		if err := cmds.Initialize(ctx, reg); err != nil {
			return fmt.Errorf("initialize command %s: %w", spec.Name, err)
		}
	}
	if err := bc.ReloadCommands(ctx); err != nil {
		return fmt.Errorf("reload commands: %w", err)
	}
	return nil
}
