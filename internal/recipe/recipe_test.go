// internal/recipe/recipe_test.go
package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookLookup(t *testing.T) {
	b := Book{Recipes: []Recipe{
		{Name: "rye", MinWeight: 40, MaxWeight: 60},
		{Name: "wheat", MinWeight: 50, MaxWeight: 80},
	}}

	assert.Equal(t, "rye", b.Lookup(40))
	assert.Equal(t, "rye", b.Lookup(55), "first match wins")
	assert.Equal(t, "wheat", b.Lookup(80))
	assert.Equal(t, NoRecipe, b.Lookup(80.01))
	assert.Equal(t, NoRecipe, Book{}.Lookup(1))
}

func TestBookValidate(t *testing.T) {
	assert.NoError(t, Book{}.Validate())
	assert.Error(t, Book{Recipes: []Recipe{{MinWeight: 1, MaxWeight: 2}}}.Validate())
	assert.Error(t, Book{Recipes: []Recipe{{Name: "x", MinWeight: 3, MaxWeight: 2}}}.Validate())
}

func TestFile_SaveLoadLookup(t *testing.T) {
	f := &File{Path: filepath.Join(t.TempDir(), "config", "recipes.yaml")}

	b, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, b.Recipes)
	assert.Equal(t, NoRecipe, f.Lookup(50))

	require.NoError(t, f.Save(Book{Recipes: []Recipe{{Name: "bread", MinWeight: 45, MaxWeight: 55}}}))
	assert.Equal(t, "bread", f.Lookup(50))
}

func TestFile_ReadsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"recipes":[{"name":"bun","min_weight":10,"max_weight":20}]}`), 0o644))

	f := &File{Path: path}
	assert.Equal(t, "bun", f.Lookup(15))
}

func TestFile_CorruptResolvesToNoRecipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recipes: [unterminated"), 0o644))

	f := &File{Path: path}
	_, err := f.Load()
	assert.Error(t, err)
	assert.Equal(t, NoRecipe, f.Lookup(15))
}

func TestFile_EnsureExists(t *testing.T) {
	f := &File{Path: filepath.Join(t.TempDir(), "recipes.yaml")}
	require.NoError(t, f.EnsureExists())

	_, err := os.Stat(f.Path)
	assert.NoError(t, err)
}
