package repository

import (
	"context"
	"testing"

	"gamestore-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountBuyerAndDeveloper(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	buyerID := seedBuyer(t, store, "alice")
	assert.Positive(t, buyerID)

	dev := &model.Account{
		Username:     "bob",
		PasswordHash: "hash",
		Email:        "bob@studio.dev",
		Role:         model.RoleDeveloper,
		StudioName:   "Bob Games",
	}
	devID, err := store.CreateAccount(ctx, dev)
	require.NoError(t, err)
	assert.Equal(t, devID, dev.ID)
	assert.False(t, dev.CreatedAt.IsZero())

	buyer, err := store.FindBuyer(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.Equal(t, buyerID, buyer.ID)
	assert.Equal(t, model.RoleBuyer, buyer.Role)
	assert.Equal(t, "hash", buyer.PasswordHash)

	found, err := store.FindDeveloper(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.RoleDeveloper, found.Role)
	assert.Equal(t, "Bob Games", found.StudioName)
}

func TestCreateAccountUsernameUniqueAcrossRoles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedBuyer(t, store, "alice")

	_, err := store.CreateAccount(ctx, &model.Account{
		Username: "alice", PasswordHash: "x", Email: "a@x.com", Role: model.RoleBuyer,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = store.CreateAccount(ctx, &model.Account{
		Username: "alice", PasswordHash: "x", Email: "a@x.com", Role: model.RoleDeveloper, StudioName: "S",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	dev, err := store.FindDeveloper(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, dev)
}

func TestFindMissingAccount(t *testing.T) {
	store := newTestStore(t)

	buyer, err := store.FindBuyer(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, buyer)
}
