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
	userCacheKind = "user_permission_ids"
	// Short TTL keeps grants and revocations visible quickly without a
	// catalog query per message.
	userCacheTTL = time.Minute
)

// UserPermissionPort loads the permission ids a user effectively holds.
type UserPermissionPort interface {
	UserAllowedIDs(ctx context.Context, userID int64) ([]int32, error)
}

// UserCache caches each user's held permission ids.
type UserCache struct {
	client *redis.Client
	repo   UserPermissionPort
}

// NewUserCache constructs the cache.
func NewUserCache(client *redis.Client, repo UserPermissionPort) *UserCache {
	return &UserCache{client: client, repo: repo}
}

func userCacheKey(userID int64) string {
	return cache.Key("userperm", strconv.FormatInt(userID, 10))
}

// AllowedIDs returns the permission ids held by the user, reading through
// the cache.
func (c *UserCache) AllowedIDs(ctx context.Context, userID int64) ([]int32, error) {
	key := userCacheKey(userID)
	var ids []int32
	found, err := cache.GetJSON(ctx, c.client, userCacheKind, key, &ids)
	if err != nil {
		return nil, err
	}
	if found {
		return ids, nil
	}

	ids, err = c.repo.UserAllowedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission: user %d allowed ids: %w", userID, err)
	}
	if ids == nil {
		ids = []int32{}
	}
	if err := cache.SetJSON(ctx, c.client, userCacheKind, key, ids, userCacheTTL); err != nil {
		return nil, err
	}
	return ids, nil
}

// Invalidate drops a user's cached ids after a grant or revocation.
func (c *UserCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, userCacheKey(userID)).Err()
}
