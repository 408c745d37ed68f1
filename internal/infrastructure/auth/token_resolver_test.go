package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenResolver_ResolveToken(t *testing.T) {
	resolver := NewStaticTokenResolver("tok-1:alice:admin:org-1, tok-2:scanner-7:driver:org-1")
	require.Equal(t, 2, resolver.Size())

	actor, err := resolver.ResolveToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.ID)
	assert.Equal(t, "admin", actor.Role)
	assert.Equal(t, "org-1", actor.Org)

	actor, err = resolver.ResolveToken(context.Background(), "tok-2")
	require.NoError(t, err)
	assert.Equal(t, "driver", actor.Role)

	_, err = resolver.ResolveToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestStaticTokenResolver_SkipsMalformedEntries(t *testing.T) {
	resolver := NewStaticTokenResolver("bad-entry,tok-1:bob:viewer:org-2,:x:y")
	assert.Equal(t, 1, resolver.Size())

	actor, err := resolver.ResolveToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "viewer", actor.Role)
}

func TestStaticTokenResolver_EmptySpec(t *testing.T) {
	resolver := NewStaticTokenResolver("")
	assert.Equal(t, 0, resolver.Size())
}
