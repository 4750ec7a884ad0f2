package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"
	"gamestore-api/pkg/logger"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store    *repository.SQLStore
	accounts *AccountService
	catalog  *CatalogService
	carts    *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logger.Nop()
	return &fixture{
		store:    store,
		accounts: NewAccountService(store, bcrypt.MinCost, log),
		catalog:  NewCatalogService(store),
		carts:    NewCartService(store, log),
	}
}

func (f *fixture) buyer(t *testing.T, username string) model.Identity {
	t.Helper()
	id, err := f.accounts.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "pw-" + username,
		Email:    username + "@x.com",
		Role:     model.RoleBuyer,
	})
	require.NoError(t, err)
	return id
}

// games inserts n games titled "Game 1".."Game n" with ids 1..n.
func (f *fixture) games(t *testing.T, n int) {
	t.Helper()
	games := make([]model.Game, n)
	for i := range games {
		games[i] = model.Game{Title: fmt.Sprintf("Game %d", i+1), Price: 9.99, Category: "Indie"}
	}
	_, err := f.store.InsertGames(context.Background(), games)
	require.NoError(t, err)
}
