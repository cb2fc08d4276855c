package prospection

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Store persists prospection records and categories. Implementations must
// make Upsert atomic: a concurrent LoadAll sees either the old or the new
// record, never a mix.
type Store interface {
	// LoadAll returns every record. Fails with ErrStoreUnavailable when the
	// backend cannot be reached.
	LoadAll(ctx context.Context) ([]Record, error)

	// Upsert inserts the record, or replaces the existing one with the same
	// BuildingID wholesale.
	Upsert(ctx context.Context, rec Record) (Record, error)

	// Delete removes the record for buildingID. Deleting an absent id is not
	// an error.
	Delete(ctx context.Context, buildingID string) error

	// ListCategories returns categories ordered by name.
	ListCategories(ctx context.Context) ([]Category, error)

	// CreateCategory fails with ErrDuplicateCategory when the name is taken.
	CreateCategory(ctx context.Context, name string) (Category, error)
}

// NormalizeCategoryName trims and NFC-normalizes a category name so that
// "Boîtage" typed with a combining circumflex collides with the precomposed one.
func NormalizeCategoryName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidCategory)
	}
	if len(n) > 120 {
		return "", fmt.Errorf("%w: name longer than 120 bytes", ErrInvalidCategory)
	}
	return n, nil
}
