package prospection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/EmpoweredVote/EV-Prospection/internal/staleness"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Sync is the single entry point the map talks to. It mirrors every record in
// memory and only changes the mirror after the store confirmed the write, so
// the map never shows a save that did not happen.
type Sync struct {
	store    Store
	now      func() time.Time
	validate *validator.Validate
	log      *logrus.Entry

	mu     sync.RWMutex
	mirror map[string]Record
	ready  bool
}

// Option customizes a Sync.
type Option func(*Sync)

// WithClock replaces time.Now, used to stamp visits without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Sync) { s.now = now }
}

func NewSync(store Store, opts ...Option) *Sync {
	s := &Sync{
		store:    store,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logging.For("prospection"),
		mirror:   make(map[string]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the mirror with the store content. On ErrStoreUnavailable the
// previous mirror is kept and Ready stays false until a later Load succeeds.
// The write lock is held from the read to the swap, so a visit confirmed by
// the store is never dropped by an older snapshot.
func (s *Sync) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.log.WithError(err).Warn("could not load prospections, map stays unready")
		return err
	}

	mirror := make(map[string]Record, len(records))
	for _, r := range records {
		mirror[r.BuildingID] = r.clone()
	}
	s.mirror = mirror
	s.ready = true

	s.log.Infof("loaded %d prospections", len(records))
	return nil
}

// Ready reports whether a Load has succeeded.
func (s *Sync) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// RecordVisit stores a visit of buildingID and returns the id whose color
// changed. A category is mandatory; without one no store call is made.
func (s *Sync) RecordVisit(ctx context.Context, buildingID string, fields VisitFields) (string, error) {
	if fields.CategoryID == nil {
		return "", ErrNoCategorySelected
	}

	visitedAt := fields.VisitedAt
	if visitedAt.IsZero() {
		visitedAt = s.now()
	}

	rec := Record{
		BuildingID:   buildingID,
		VisitedAt:    visitedAt.UTC(),
		MailboxCount: copyInt(fields.MailboxCount),
		EntryCode:    blankToNil(fields.EntryCode),
		Notes:        blankToNil(fields.Notes),
		CategoryID:   copyInt(fields.CategoryID),
	}
	if err := s.validate.Struct(rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.store.Upsert(ctx, rec)
	if err != nil {
		s.log.WithError(err).WithField("building_id", buildingID).Error("visit not saved")
		return "", fmt.Errorf("%w: record visit %s: %v", ErrSyncFailed, buildingID, err)
	}

	if prev, ok := s.mirror[buildingID]; ok && !sameCategory(prev.CategoryID, saved.CategoryID) {
		// Last write wins; keep a trace of the category being overwritten.
		s.log.WithFields(logrus.Fields{
			"building_id":  buildingID,
			"old_category": derefInt(prev.CategoryID),
			"new_category": derefInt(saved.CategoryID),
		}).Info("visit re-recorded under another category")
	}
	s.mirror[buildingID] = saved.clone()

	return buildingID, nil
}

// RemoveVisit deletes the record of buildingID and returns the id to recolor.
func (s *Sync) RemoveVisit(ctx context.Context, buildingID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, buildingID); err != nil {
		s.log.WithError(err).WithField("building_id", buildingID).Error("visit not removed")
		return "", fmt.Errorf("%w: remove visit %s: %v", ErrSyncFailed, buildingID, err)
	}
	delete(s.mirror, buildingID)

	return buildingID, nil
}

// Record returns the mirrored record of buildingID, if any.
func (s *Sync) Record(buildingID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.mirror[buildingID]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Records returns all mirrored records ordered by building id.
func (s *Sync) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.mirror))
	for _, r := range s.mirror {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingID < out[j].BuildingID })
	return out
}

// TrackedIDs lists the building ids that currently have a record.
func (s *Sync) TrackedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.mirror))
	for id := range s.mirror {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CurrentBand classifies buildingID. With a filter, visits filed under another
// category display as Unvisited; they are hidden, not deleted.
func (s *Sync) CurrentBand(buildingID string, now time.Time, filter *int) staleness.Band {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bandLocked(buildingID, now, filter)
}

// Recolor computes the band of every id in one pass under a single read lock,
// so the map is never painted from a half-updated mirror.
func (s *Sync) Recolor(ids []string, now time.Time, filter *int) map[string]staleness.Band {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]staleness.Band, len(ids))
	for _, id := range ids {
		out[id] = s.bandLocked(id, now, filter)
	}
	return out
}

func (s *Sync) bandLocked(buildingID string, now time.Time, filter *int) staleness.Band {
	rec, ok := s.mirror[buildingID]
	if !ok {
		return staleness.Unvisited
	}
	if filter != nil && (rec.CategoryID == nil || *rec.CategoryID != *filter) {
		return staleness.Unvisited
	}
	visitedAt := rec.VisitedAt
	return staleness.Classify(&visitedAt, now)
}

func (s *Sync) Categories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Sync) CreateCategory(ctx context.Context, name string) (Category, error) {
	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return Category{}, err
	}
	s.log.WithField("category_id", c.ID).Infof("created category %q", c.Name)
	return c, nil
}

func derefInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
