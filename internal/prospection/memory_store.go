package prospection

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps everything in process memory. It backs the "memory"
// backend and the tests; FailReads/FailWrites simulate an unreachable backend.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]Record
	categories []Category
	nextID     int

	FailReads  error
	FailWrites error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		nextID:  1,
	}
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.FailReads)
	}

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingID < out[j].BuildingID })
	return out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return Record{}, s.FailWrites
	}
	s.records[rec.BuildingID] = rec.clone()
	return rec.clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, buildingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.records, buildingID)
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, s.FailReads)
	}

	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	if err := ctx.Err(); err != nil {
		return Category{}, err
	}
	name, err := NormalizeCategoryName(name)
	if err != nil {
		return Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return Category{}, s.FailWrites
	}
	for _, c := range s.categories {
		if c.Name == name {
			return Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
	}

	c := Category{ID: s.nextID, Name: name}
	s.nextID++
	s.categories = append(s.categories, c)
	return c, nil
}
