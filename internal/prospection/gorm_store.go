package prospection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// GormStore keeps records in a SQL database: Postgres (Supabase) for the
// shared deployment or a local SQLite file.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the prospection tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Category{}, &Record{}); err != nil {
		return fmt.Errorf("auto-migrate prospection tables: %w", err)
	}
	return nil
}

func (s *GormStore) LoadAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := s.db.WithContext(ctx).Order("building_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *GormStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	// One statement, so readers never observe a half-replaced row. UpdateAll
	// also overwrites columns with NULL: the new visit replaces, never merges.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "building_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return Record{}, fmt.Errorf("upsert %s: %w", rec.BuildingID, err)
	}
	return rec, nil
}

func (s *GormStore) Delete(ctx context.Context, buildingID string) error {
	err := s.db.WithContext(ctx).Where("building_id = ?", buildingID).Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", buildingID, err)
	}
	return nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return categories, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	name, err := NormalizeCategoryName(name)
	if err != nil {
		return Category{}, err
	}

	var existing Category
	err = s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	switch {
	case err == nil:
		return Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Category{}, fmt.Errorf("lookup category %q: %w", name, err)
	}

	c := Category{Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		// Lost a race against another insert of the same name.
		if isUniqueViolation(err) {
			return Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		return Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
