package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/souschef/internal/recipe"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	// Relative to the test's working directory, so calls share a database.
	root.SetArgs(append([]string{"--quiet", "--db", "souschef.db"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestImportListAndHistory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "tea.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"name":"Tea","instructions":["Boil water","Steep the bag"],"ingredients":["tea bag"]}`), 0o644))

	out, err := run(t, "recipes", "import", file, "--user", "sam")
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "Tea"`)

	out, err = run(t, "recipes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tea")

	out, err = run(t, "recipes", "search", "te")
	require.NoError(t, err)
	assert.Contains(t, out, "Tea")

	out, err = run(t, "history", "--user", "sam")
	require.NoError(t, err)
	assert.Contains(t, out, "0/2")
}

func TestUserRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "stats")
	assert.ErrorContains(t, err, "--user is required")

	_, err = run(t, "recipes", "search", "--by", "liked")
	assert.ErrorContains(t, err, "--user is required")
}

func TestStoreRecipeReusesIdenticalRow(t *testing.T) {
	t.Chdir(t.TempDir())
	a := &app{dbPath: "souschef.db", quiet: true}
	require.NoError(t, a.setup(false))
	t.Cleanup(a.close)

	db, err := a.openDB()
	require.NoError(t, err)
	ctx := context.Background()
	userID, err := db.AddUser(ctx, "bob")
	require.NoError(t, err)

	first, err := a.storeRecipe(ctx, db, recipe.Samples()[0], userID)
	require.NoError(t, err)
	second, err := a.storeRecipe(ctx, db, recipe.Samples()[0], userID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := db.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
