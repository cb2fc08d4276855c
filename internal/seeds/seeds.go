package seeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/EmpoweredVote/EV-Prospection/internal/prospection"
)

// DefaultCategoriesFile lists the categories every new deployment starts with.
const DefaultCategoriesFile = "internal/seeds/data/categories.json"

// CategoryCreator is the part of a prospection store seeding needs.
type CategoryCreator interface {
	CreateCategory(ctx context.Context, name string) (prospection.Category, error)
}

// LoadCategoryNames reads a JSON array of category names.
func LoadCategoryNames(path string) ([]string, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	var names []string
	if err := json.Unmarshal(file, &names); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return names, nil
}

// SeedCategories creates every name that does not exist yet and returns how
// many were created. Running it twice is harmless.
func SeedCategories(ctx context.Context, store CategoryCreator, names []string) (int, error) {
	log := logging.For("seeds")

	created := 0
	for _, name := range names {
		_, err := store.CreateCategory(ctx, name)
		switch {
		case err == nil:
			created++
		case errors.Is(err, prospection.ErrDuplicateCategory):
			log.Debugf("category exists, skipping: %s", name)
		default:
			return created, fmt.Errorf("failed to create category %q: %w", name, err)
		}
	}

	log.Infof("seeded %d categories (%d already present)", created, len(names)-created)
	return created, nil
}
