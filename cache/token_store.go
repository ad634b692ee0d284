package cache

import (
	"context"
	"time"
)

// TokenEntry is a validated internal bearer token cached for fast
// re-validation by the auth middleware.
type TokenEntry struct {
	TokenValue    string    `redis:"tokenValue"`
	Username      string    `redis:"username"`
	ClientAddress string    `redis:"clientAddress"`
	Provider      string    `redis:"provider"`
	ExpiresAt     time.Time `redis:"expiresAt"`
	CreatedAt     time.Time `redis:"createdAt"`
	LastUsedAt    time.Time `redis:"lastUsedAt"`
}

// TokenStore caches validated bearer tokens keyed by token hash.
type TokenStore interface {
	Set(ctx context.Context, token *TokenEntry) error
	Get(ctx context.Context, token string) (*TokenEntry, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
