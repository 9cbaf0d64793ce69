package command

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oxbow-chat/oxbow/internal/platform/cache"
)

// Cooldowns are expiring marker keys in the shared cache, so enforcement
// holds across process instances. Scope is the channel name for channel
// messages or a per-sender whisper scope.
func cooldownKey(commandID int32, scope string) string {
	return cache.Key("cooldown", "cmd", strconv.FormatInt(int64(commandID), 10), scope)
}

// CooldownAvailable reports whether the command may run in the given scope.
// Commands without an effective cooldown are always available.
func (a Attributes) CooldownAvailable(ctx context.Context, client *redis.Client, scope string, override *time.Duration) (bool, error) {
	if a.effective(override) == 0 {
		return true, nil
	}
	onCooldown, err := cache.FlagExists(ctx, client, cooldownKey(a.ID, scope))
	if err != nil {
		return false, err
	}
	return !onCooldown, nil
}

// ResetCooldown starts (or refreshes) the cooldown window for the scope.
func (a Attributes) ResetCooldown(ctx context.Context, client *redis.Client, scope string, override *time.Duration) error {
	cooldown := a.effective(override)
	if cooldown == 0 {
		return nil
	}
	return cache.SetFlag(ctx, client, cooldownKey(a.ID, scope), cooldown)
}

func (a Attributes) effective(override *time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	return a.Cooldown
}
