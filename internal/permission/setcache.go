package permission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oxbow-chat/oxbow/internal/platform/cache"
)

const (
	setCacheKind = "command_permission_set"
	setCacheTTL  = 5 * time.Minute
)

// CommandPermissionPort loads the raw permission ids attached to a command.
type CommandPermissionPort interface {
	CommandPermissionIDs(ctx context.Context, commandID int32) ([]int32, error)
}

// SetCache resolves and caches per-command permission requirements so the
// hot path of a chat message never touches the implication tables.
type SetCache struct {
	client *redis.Client
	repo   CommandPermissionPort
}

// NewSetCache constructs the cache.
func NewSetCache(client *redis.Client, repo CommandPermissionPort) *SetCache {
	return &SetCache{client: client, repo: repo}
}

func setCacheKey(commandID int32) string {
	return cache.Key("cmdperm", strconv.FormatInt(int64(commandID), 10))
}

// ForCommand returns the command's resolved requirement, reading through
// the cache and resolving against the given store snapshot on a miss.
func (c *SetCache) ForCommand(ctx context.Context, store *Store, commandID int32) (CommandPermissionSet, error) {
	key := setCacheKey(commandID)
	var set CommandPermissionSet
	found, err := cache.GetJSON(ctx, c.client, setCacheKind, key, &set)
	if err != nil {
		return CommandPermissionSet{}, err
	}
	if found {
		return set, nil
	}

	ids, err := c.repo.CommandPermissionIDs(ctx, commandID)
	if err != nil {
		return CommandPermissionSet{}, fmt.Errorf("permission: command %d ids: %w", commandID, err)
	}
	set = CommandPermissionSet{CommandID: commandID, Requirement: store.Requirement(ids)}

	if err := cache.SetJSON(ctx, c.client, setCacheKind, key, set, setCacheTTL); err != nil {
		return CommandPermissionSet{}, err
	}
	return set, nil
}
