package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "oxbow"

// Key joins key parts under the shared application prefix.
func Key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

// Values are stored wrapped in an envelope tagged with the owning type so a
// key collision between entity types surfaces as a miss instead of a decode
// of someone else's payload.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// SetJSON stores value under key with the given kind tag and TTL.
func SetJSON(ctx context.Context, client *redis.Client, kind, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("platform/cache: marshal %s: %w", kind, err)
	}
	payload, err := json.Marshal(envelope{Kind: kind, Data: data})
	if err != nil {
		return fmt.Errorf("platform/cache: marshal envelope: %w", err)
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("platform/cache: set %s: %w", key, err)
	}
	return nil
}

// GetJSON loads the value stored under key into dest and reports whether it
// was found. A stored value carrying a different kind tag, or one that no
// longer decodes, counts as a miss. Connectivity failures are returned as
// errors and must not be confused with misses.
func GetJSON(ctx context.Context, client *redis.Client, kind, key string, dest any) (bool, error) {
	payload, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("platform/cache: get %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return false, nil
	}
	if env.Kind != kind {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetFlag sets a bare marker key that expires after ttl. Used for cooldown
// windows, where only the key's existence matters.
func SetFlag(ctx context.Context, client *redis.Client, key string, ttl time.Duration) error {
	if err := client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("platform/cache: set flag %s: %w", key, err)
	}
	return nil
}

// FlagExists reports whether a marker key is still live.
func FlagExists(ctx context.Context, client *redis.Client, key string) (bool, error) {
	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("platform/cache: exists %s: %w", key, err)
	}
	return n > 0, nil
}
