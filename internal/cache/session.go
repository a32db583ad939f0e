package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authCacheTTL is the time-to-live for cached auth contexts.
	// Kept short so deactivation and role changes take effect quickly.
	authCacheTTL = 2 * time.Minute

	// revokedPrefix is the Redis key prefix for revoked token IDs.
	revokedPrefix = "auth:revoked:"
)

// cachedAuthContext represents auth context stored in Redis.
type cachedAuthContext struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"is_active"`
}

// GetAuthContext retrieves a cached auth context for a user ID.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, userID string) (*model.AuthContext, error) {
	key := authCachePrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		UserID:   cached.UserID,
		Email:    cached.Email,
		Roles:    cached.Roles,
		IsActive: cached.IsActive,
	}, nil
}

// SetAuthContext caches an auth context keyed by user ID.
func (c *Cache) SetAuthContext(ctx context.Context, authCtx *model.AuthContext) error {
	key := authCachePrefix + authCtx.UserID

	cached := cachedAuthContext{
		UserID:   authCtx.UserID,
		Email:    authCtx.Email,
		Roles:    authCtx.Roles,
		IsActive: authCtx.IsActive,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, key, data, authCacheTTL).Err()
}

// DeleteAuthContext removes a cached auth context.
// Used when a user is updated or deactivated.
func (c *Cache) DeleteAuthContext(ctx context.Context, userID string) error {
	return c.client.Del(ctx, authCachePrefix+userID).Err()
}

// RevokeToken marks a token ID (jti) as revoked until the token would
// have expired anyway. Used by logout.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked reports whether a token ID has been revoked.
// Fails closed only on a positive hit; Redis errors are treated as
// not revoked so an outage does not lock every user out.
func (c *Cache) IsTokenRevoked(ctx context.Context, jti string) bool {
	n, err := c.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
