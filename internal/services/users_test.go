package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEnsureIsIdempotent(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	first, err := svc.Users.Ensure(ctx, Identity{Email: "alice@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, "alice@x.com", first.Email)

	again, err := svc.Users.Ensure(ctx, Identity{Session: &SessionIdentity{Email: "alice@other.org"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestUserLookupDoesNotCreate(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	user, err := svc.Users.Lookup(ctx, Identity{Username: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, user)

	mustUser(t, svc, "ghost")
	user, err = svc.Users.Lookup(ctx, Identity{Username: "ghost"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ghost", user.Username)
}

func TestUserEnsureRejectsUnresolvable(t *testing.T) {
	svc, _ := setupTestServices(t)
	_, err := svc.Users.Ensure(context.Background(), Identity{ID: "opaque"})
	assert.Error(t, err)
}
