package services

import (
	"context"
	"testing"
	"time"

	"github.com/cloudteams/developer-services/cache"
	"github.com/cloudteams/developer-services/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndValidateRoundtrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, "10.0.0.1", principal.ClientAddress)
	assert.Equal(t, domain.ProviderGithub, principal.Provider)
}

func TestValidateSurvivesCacheMiss(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	svc := NewTokenService([]byte("test-signing-key"), "cloudteams-test", time.Hour, store)

	token, err := svc.Mint(context.Background(), domain.ProviderBitbucket, "10.0.0.2", "bob")
	require.NoError(t, err)

	// Drop the cached entry so validation falls back to signature
	// verification.
	require.NoError(t, store.Delete(context.Background(), token))

	principal, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "bob", principal.Username)
	assert.Equal(t, domain.ProviderBitbucket, principal.Provider)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	minter := NewTokenService([]byte("key-one"), "cloudteams-test", time.Hour, cache.NewMemoryTokenStore())
	verifier := NewTokenService([]byte("key-two"), "cloudteams-test", time.Hour, cache.NewMemoryTokenStore())

	token, err := minter.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)

	_, err = verifier.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	minter := NewTokenService([]byte("test-signing-key"), "someone-else", time.Hour, cache.NewMemoryTokenStore())
	verifier := NewTokenService([]byte("test-signing-key"), "cloudteams-test", time.Hour, cache.NewMemoryTokenStore())

	token, err := minter.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)

	_, err = verifier.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"), "cloudteams-test", -time.Minute, cache.NewMemoryTokenStore())

	token, err := svc.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Validate(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestMintedTokensAreUnique(t *testing.T) {
	svc := newTestTokenService()

	first, err := svc.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)
	second, err := svc.Mint(context.Background(), domain.ProviderGithub, "10.0.0.1", "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims := &InternalTokenClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(first, claims)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "alice", claims.Subject)
}
