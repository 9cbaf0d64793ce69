package user

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oxbow-chat/oxbow/internal/chat"
	"github.com/oxbow-chat/oxbow/internal/platform/cache"
)

const (
	cacheKind = "user"
	cacheTTL  = 10 * time.Minute
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetByPlatformID(ctx context.Context, platformID int64) (User, error)
	Insert(ctx context.Context, platformID int64, login, displayName string) (User, error)
	UpdateIdentity(ctx context.Context, platformID int64, login, displayName string) (User, error)
}

// Service handles user lookups with a cache in front of the store.
type Service struct {
	client *redis.Client
	repo   RepositoryPort
}

// NewService builds a Service instance.
func NewService(client *redis.Client, repo RepositoryPort) *Service {
	return &Service{client: client, repo: repo}
}

func cacheKey(platformID int64) string {
	return cache.Key("user", strconv.FormatInt(platformID, 10))
}

// Get returns the user for a platform id, reading through the cache.
func (s *Service) Get(ctx context.Context, platformID int64) (User, error) {
	key := cacheKey(platformID)
	var cached User
	found, err := cache.GetJSON(ctx, s.client, cacheKind, key, &cached)
	if err != nil {
		return User{}, err
	}
	if found {
		return cached, nil
	}

	u, err := s.repo.GetByPlatformID(ctx, platformID)
	if err != nil {
		return User{}, err
	}
	if err := cache.SetJSON(ctx, s.client, cacheKind, key, u, cacheTTL); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetOrUpsert resolves the user behind an event's sender: unknown users are
// inserted, and a changed login or display name updates the row while the
// old values move into the history arrays.
func (s *Service) GetOrUpsert(ctx context.Context, info chat.UserInfo) (User, error) {
	u, err := s.Get(ctx, info.PlatformID)
	if errors.Is(err, ErrNotFound) {
		return s.repo.Insert(ctx, info.PlatformID, info.Login, info.DisplayName)
	}
	if err != nil {
		return User{}, err
	}
	if u.Matches(info.Login, info.DisplayName) {
		return u, nil
	}

	updated, err := s.repo.UpdateIdentity(ctx, info.PlatformID, info.Login, info.DisplayName)
	if err != nil {
		return User{}, err
	}
	if err := cache.SetJSON(ctx, s.client, cacheKind, cacheKey(info.PlatformID), updated, cacheTTL); err != nil {
		return User{}, err
	}
	return updated, nil
}
