package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudteams/developer-services/cache"
	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InternalTokenClaims are the claims of an internal bearer token. The
// token is bound to the username and the address the login request came
// from.
type InternalTokenClaims struct {
	jwt.RegisteredClaims
	ClientAddress string `json:"addr"`
	Provider      string `json:"prv"`
}

// TokenService mints and validates the internal bearer tokens handed to
// front-end clients. Validated tokens are cached so the auth middleware
// does not re-verify the signature on every request.
type TokenService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	store      cache.TokenStore
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(signingKey []byte, issuer string, tokenTTL time.Duration, store cache.TokenStore) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		store:      store,
	}
}

// Mint creates a signed bearer token bound to (clientAddress, username).
func (s *TokenService) Mint(ctx context.Context, provider domain.Provider, clientAddress, username string) (string, error) {
	now := time.Now()
	claims := InternalTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		ClientAddress: clientAddress,
		Provider:      provider.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign internal token: %w", err)
	}

	entry := &cache.TokenEntry{
		TokenValue:    signed,
		Username:      username,
		ClientAddress: clientAddress,
		Provider:      provider.String(),
		ExpiresAt:     claims.ExpiresAt.Time,
		CreatedAt:     now,
	}
	if err := s.store.Set(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("failed to cache minted token")
	}

	if metrics.TokensMintedTotal != nil {
		metrics.TokensMintedTotal.Inc()
	}

	return signed, nil
}

// Validate checks a bearer token and returns the principal it carries.
func (s *TokenService) Validate(ctx context.Context, tokenValue string) (*domain.Principal, error) {
	// Cache first.
	if entry, err := s.store.Get(ctx, tokenValue); err == nil {
		if time.Now().Before(entry.ExpiresAt) {
			return &domain.Principal{
				Username:      entry.Username,
				ClientAddress: entry.ClientAddress,
				Provider:      domain.Provider(entry.Provider),
			}, nil
		}
		_ = s.store.Delete(ctx, tokenValue)
		return nil, fmt.Errorf("token is expired")
	}

	claims := &InternalTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenValue, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	entry := &cache.TokenEntry{
		TokenValue:    tokenValue,
		Username:      claims.Subject,
		ClientAddress: claims.ClientAddress,
		Provider:      claims.Provider,
		ExpiresAt:     claims.ExpiresAt.Time,
		CreatedAt:     time.Now(),
	}
	if cacheErr := s.store.Set(ctx, entry); cacheErr != nil {
		log.Warn().Err(cacheErr).Msg("failed to cache validated token")
	}

	return &domain.Principal{
		Username:      claims.Subject,
		ClientAddress: claims.ClientAddress,
		Provider:      domain.Provider(claims.Provider),
	}, nil
}
