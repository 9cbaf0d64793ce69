// Package command holds the command catalog: attributes, aliases, the
// per-channel configuration and the hot-swapped alias index consulted on
// every chat message.
package command

import "time"

// Attributes are the persisted settings of one command. HandlerName binds
// the row to a registered command implementation; many aliases may point at
// the same command.
type Attributes struct {
	ID          int32  `json:"id"`
	HandlerName string `json:"handler_name"`
	Description string `json:"description"`
	// Enabled is the global switch; DefaultActive decides whether channels
	// without an explicit override run the command.
	Enabled       bool `json:"enabled"`
	DefaultActive bool `json:"default_active"`
	// Cooldown is the minimum time between uses; zero means none.
	Cooldown       time.Duration `json:"cooldown"`
	WhisperEnabled bool          `json:"whisper_enabled"`
}

// Alias maps one invocable name to a command.
type Alias struct {
	Name      string `json:"name"`
	CommandID int32  `json:"command_id"`
}

// ChannelConfig is the per-channel override for one command; nil fields
// fall back to the command's own attributes.
type ChannelConfig struct {
	ChannelID int32          `json:"channel_id"`
	CommandID int32          `json:"command_id"`
	Active    *bool          `json:"active"`
	Cooldown  *time.Duration `json:"cooldown"`
}

// ActiveIn resolves the effective activation for a channel config lookup
// result (which may be nil when no override row exists).
func (a Attributes) ActiveIn(cfg *ChannelConfig) bool {
	if cfg != nil && cfg.Active != nil {
		return *cfg.Active
	}
	return a.DefaultActive
}

// EffectiveCooldown resolves the cooldown for a channel config lookup
// result; zero means the command has none.
func (a Attributes) EffectiveCooldown(cfg *ChannelConfig) time.Duration {
	if cfg != nil && cfg.Cooldown != nil {
		return *cfg.Cooldown
	}
	return a.Cooldown
}

// Registration describes everything a command implementation needs
// persisted on boot: its attributes, the aliases that trigger it and the
// names of the permissions required to run it.
type Registration struct {
	HandlerName    string
	Description    string
	Enabled        bool
	DefaultActive  bool
	Cooldown       time.Duration
	WhisperEnabled bool
	PermissionIDs  []int32
	Aliases        []string
}
