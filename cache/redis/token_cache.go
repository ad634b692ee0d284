package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudteams/developer-services/cache"
	"github.com/redis/go-redis/v9"
)

// TokenStore implements cache.TokenStore on Redis, for deployments where
// multiple instances must share the validated-token cache.
type TokenStore struct {
	client *redis.Client
	prefix string
}

// NewTokenStore creates a new [TokenStore] instance.
func NewTokenStore(client *redis.Client, prefix string) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

func (r *TokenStore) redisKey(token string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, cache.HashToken(token))
}

// Set stores a token entry in Redis with expiry matching the token.
func (r *TokenStore) Set(ctx context.Context, entry *cache.TokenEntry) error {
	key := r.redisKey(entry.TokenValue)
	now := time.Now()

	fields := map[string]interface{}{
		"token":          entry.TokenValue,
		"username":       entry.Username,
		"client_address": entry.ClientAddress,
		"provider":       entry.Provider,
		"expires_at":     entry.ExpiresAt.Unix(),
		"created_at":     now.Unix(),
		"last_used_at":   now.Unix(),
	}

	if _, err := r.client.HSet(ctx, key, fields).Result(); err != nil {
		return fmt.Errorf("failed to set token in Redis: %w", err)
	}

	if _, err := r.client.Expire(ctx, key, time.Until(entry.ExpiresAt)).Result(); err != nil {
		return fmt.Errorf("failed to set expiry for token in Redis: %w", err)
	}

	return nil
}

// Get retrieves a token entry from Redis.
func (r *TokenStore) Get(ctx context.Context, token string) (*cache.TokenEntry, error) {
	key := r.redisKey(token)

	res, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("token not found")
	}

	expiresAtUnix, err := strconv.ParseInt(res["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed expires_at for cached token: %w", err)
	}
	createdAtUnix, _ := strconv.ParseInt(res["created_at"], 10, 64)

	entry := &cache.TokenEntry{
		TokenValue:    res["token"],
		Username:      res["username"],
		ClientAddress: res["client_address"],
		Provider:      res["provider"],
		ExpiresAt:     time.Unix(expiresAtUnix, 0),
		CreatedAt:     time.Unix(createdAtUnix, 0),
		LastUsedAt:    time.Now(),
	}

	r.client.HSet(ctx, key, "last_used_at", entry.LastUsedAt.Unix())

	return entry, nil
}

// Delete removes a token from Redis.
func (r *TokenStore) Delete(ctx context.Context, token string) error {
	if _, err := r.client.Del(ctx, r.redisKey(token)).Result(); err != nil {
		return fmt.Errorf("failed to delete token from Redis: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys by their TTL.
func (r *TokenStore) DeleteExpired(_ context.Context) error {
	return nil
}

var _ cache.TokenStore = (*TokenStore)(nil)
