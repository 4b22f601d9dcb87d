// internal/recipe/recipe.go
package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// NoRecipe labels a weight that matches no recipe range.
const NoRecipe = "no recipe"

// Recipe is one named weight band (inclusive on both ends).
type Recipe struct {
	Name      string  `yaml:"name" json:"name"`
	MinWeight float64 `yaml:"min_weight" json:"minWeight"`
	MaxWeight float64 `yaml:"max_weight" json:"maxWeight"`
}

// Book is the recipe table.
type Book struct {
	Recipes []Recipe `yaml:"recipes" json:"recipes"`
}

// Lookup returns the name of the first recipe whose band contains w.
func (b Book) Lookup(w float64) string {
	for _, r := range b.Recipes {
		if w >= r.MinWeight && w <= r.MaxWeight {
			return r.Name
		}
	}
	return NoRecipe
}

// Validate rejects unnamed recipes and inverted bands.
func (b Book) Validate() error {
	for i, r := range b.Recipes {
		if r.Name == "" {
			return fmt.Errorf("recipes[%d]: name required", i)
		}
		if r.MinWeight > r.MaxWeight {
			return fmt.Errorf("recipe %q: min_weight %.3f > max_weight %.3f", r.Name, r.MinWeight, r.MaxWeight)
		}
	}
	return nil
}

// File is a recipe table persisted on disk. It is read on every lookup so
// edits take effect on the next event without a restart.
type File struct {
	Path string

	mu sync.Mutex
}

// Load reads the table. A missing file is an empty table.
func (f *File) Load() (Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (Book, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Book{}, nil
	}
	if err != nil {
		return Book{}, fmt.Errorf("recipe: read %s: %w", f.Path, err)
	}

	var b Book
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Book{}, fmt.Errorf("recipe: parse %s: %w", f.Path, err)
	}
	return b, nil
}

// Save validates and replaces the table.
func (f *File) Save(b Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Recipes == nil {
		b.Recipes = []Recipe{}
	}

	raw, err := yaml.Marshal(b)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("recipe: %w", err)
	}
	return os.WriteFile(f.Path, raw, 0o644)
}

// EnsureExists writes an empty table if the file is missing.
func (f *File) EnsureExists() error {
	if _, err := os.Stat(f.Path); err == nil {
		return nil
	}
	return f.Save(Book{})
}

// Lookup resolves w against the current file contents. Any read or parse
// failure resolves to NoRecipe.
func (f *File) Lookup(w float64) string {
	b, err := f.Load()
	if err != nil {
		return NoRecipe
	}
	return b.Lookup(w)
}
