package seeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/EV-Prospection/internal/prospection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCategories_Idempotent(t *testing.T) {
	store := prospection.NewMemoryStore()
	ctx := context.Background()
	names := []string{"Boîtage", "Porte-à-porte"}

	n, err := SeedCategories(ctx, store, names)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = SeedCategories(ctx, store, names)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSeedCategories_StopsOnInvalidName(t *testing.T) {
	store := prospection.NewMemoryStore()

	n, err := SeedCategories(context.Background(), store, []string{"Affichage", "   "})
	assert.ErrorIs(t, err, prospection.ErrInvalidCategory)
	assert.Equal(t, 1, n)
}

func TestLoadCategoryNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Boîtage","Tractage"]`), 0o644))

	names, err := LoadCategoryNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Boîtage", "Tractage"}, names)

	_, err = LoadCategoryNames(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefaultCategoriesFile(t *testing.T) {
	names, err := LoadCategoryNames(filepath.Join("data", "categories.json"))
	require.NoError(t, err)
	assert.Contains(t, names, "Boîtage")
}
