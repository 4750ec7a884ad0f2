package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
games:
  - title: Hades
    price: 24.99
    image: /images/hades.jpg
    description: Defy the god of the dead.
    category: Action
  - title: Stardew Valley
    price: 14.99
    category: Simulation
`

func TestParse(t *testing.T) {
	games, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, model.Game{
		Title:       "Hades",
		Price:       24.99,
		Image:       "/images/hades.jpg",
		Description: "Defy the god of the dead.",
		Category:    "Action",
	}, games[0])
}

func TestParseRejectsBadEntries(t *testing.T) {
	_, err := Parse(strings.NewReader("games:\n  - price: 3\n"))
	assert.ErrorContains(t, err, "title is required")

	_, err = Parse(strings.NewReader("games:\n  - title: X\n    price: -1\n"))
	assert.ErrorContains(t, err, "price")

	_, err = Parse(strings.NewReader("games:\n  - title: X\n    rating: 5\n"))
	assert.Error(t, err)

	games, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestSeedFileOnlyWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	store, err := repository.NewSQLiteStore(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	n, err := SeedFile(ctx, store, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = SeedFile(ctx, store, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := store.CountGames(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestSeedFileMissing(t *testing.T) {
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = SeedFile(context.Background(), store, "/does/not/exist.yaml")
	assert.Error(t, err)
}
