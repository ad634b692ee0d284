package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("github")
	require.NoError(t, err)
	assert.Equal(t, ProviderGithub, p)

	p, err = ParseProvider("bitbucket")
	require.NoError(t, err)
	assert.Equal(t, ProviderBitbucket, p)

	for _, bad := range []string{"", "gitlab", "GitHub"} {
		_, err := ParseProvider(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestPrincipalContextRoundtrip(t *testing.T) {
	principal := &Principal{Username: "alice", ClientAddress: "10.0.0.1", Provider: ProviderGithub}
	ctx := ContextWithPrincipal(context.Background(), principal)

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, principal, got)

	_, ok = PrincipalFromContext(context.Background())
	assert.False(t, ok)

	_, ok = PrincipalFromContext(ContextWithPrincipal(context.Background(), nil))
	assert.False(t, ok)
}

func TestHasInternalToken(t *testing.T) {
	assert.False(t, (&UserAccount{Username: "alice"}).HasInternalToken())
	assert.True(t, (&UserAccount{Username: "alice", InternalToken: "tok"}).HasInternalToken())

	var nilUser *UserAccount
	assert.False(t, nilUser.HasInternalToken())
}
