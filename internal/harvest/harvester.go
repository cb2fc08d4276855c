// Package harvest downloads building footprints for a bounding box, one small
// tile at a time, and merges them into a single FeatureCollection.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Source returns the buildings inside a tile.
type Source interface {
	FetchBuildings(ctx context.Context, bounds orb.Bound) (*geojson.FeatureCollection, error)
}

// Harvester runs tiles strictly one after the other. After every tile,
// succeeded or exhausted, it sleeps Pacing before starting the next one.
// Retries inside a tile are also kept at least Pacing apart.
type Harvester struct {
	Source     Source
	Clock      Clock
	Pacing     time.Duration
	Backoff    time.Duration
	Multiplier float64

	log *logrus.Entry
}

func New(src Source, pacing, backoff time.Duration) *Harvester {
	return &Harvester{
		Source:  src,
		Clock:   SystemClock{},
		Pacing:  pacing,
		Backoff: backoff,
		log:     logging.For("harvest"),
	}
}

// Result is the outcome of one run.
type Result struct {
	RunID       uuid.UUID
	BBox        orb.Bound
	Step        float64
	MaxAttempts int
	StartedAt   time.Time
	FinishedAt  time.Time

	Collection *geojson.FeatureCollection
	Tiles      []Tile
	Failed     []Tile

	// Cancelled is set when ctx ended the run early. Collection still holds
	// the features of every tile that succeeded before that.
	Cancelled bool
}

// Harvest partitions bbox and queries every tile with up to maxAttempts
// attempts. A tile that keeps failing is reported in Result.Failed and the run
// continues; only an invalid grid returns an error.
func (h *Harvester) Harvest(ctx context.Context, bbox orb.Bound, step float64, maxAttempts int) (*Result, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidGrid)
	}
	tiles, err := Partition(bbox, step)
	if err != nil {
		return nil, err
	}
	if h.Clock == nil {
		h.Clock = SystemClock{}
	}
	if h.log == nil {
		h.log = logging.For("harvest")
	}

	res := &Result{
		RunID:       uuid.New(),
		BBox:        bbox,
		Step:        step,
		MaxAttempts: maxAttempts,
		StartedAt:   h.Clock.Now(),
		Collection:  geojson.NewFeatureCollection(),
		Tiles:       tiles,
	}
	log := h.log.WithField("run_id", res.RunID)
	log.Infof("harvesting %d tiles (step %v, %d attempts each)", len(tiles), step, maxAttempts)

	limiter := rate.NewLimiter(rate.Every(h.Pacing), 1)
	policy := RetryPolicy{MaxAttempts: maxAttempts, Backoff: h.Backoff, Multiplier: h.Multiplier}

	for i := range res.Tiles {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if i > 0 {
			if err := h.Clock.Sleep(ctx, h.Pacing); err != nil {
				res.Cancelled = true
				break
			}
		}
		tile := &res.Tiles[i]

		fc, err := h.fetchTile(ctx, limiter, policy, tile, log)
		if err != nil && ctx.Err() != nil {
			// Interrupted mid-tile: it was never resolved, leave it pending.
			res.Cancelled = true
			break
		}
		if err != nil {
			tile.resolve(false)
			res.Failed = append(res.Failed, *tile)
			log.WithError(err).WithFields(logrus.Fields{
				"lat": tile.South(),
				"lon": tile.West(),
			}).Errorf("tile %s failed for good", tile)
			continue
		}

		tile.resolve(true)
		res.Collection.Features = append(res.Collection.Features, fc.Features...)
		log.Infof("tile %s loaded: %d features (attempt %d)", tile, len(fc.Features), tile.Attempts)
	}

	res.FinishedAt = h.Clock.Now()
	log.WithFields(logrus.Fields{
		"features":  len(res.Collection.Features),
		"failed":    len(res.Failed),
		"cancelled": res.Cancelled,
	}).Info("harvest finished")

	return res, nil
}

func (h *Harvester) fetchTile(ctx context.Context, limiter *rate.Limiter, policy RetryPolicy, tile *Tile, log *logrus.Entry) (*geojson.FeatureCollection, error) {
	var out *geojson.FeatureCollection

	err := policy.Do(ctx, h.Clock, func(attempt int) error {
		if err := h.pace(ctx, limiter); err != nil {
			return err
		}
		tile.Attempts = attempt

		fc, err := h.Source.FetchBuildings(ctx, tile.Bounds)
		if err == nil && fc == nil {
			err = errors.New("source returned no collection")
		}
		if err != nil {
			err = fmt.Errorf("%w: tile %s attempt %d: %w", ErrTileFetchFailed, tile, attempt, err)
			log.WithError(err).Warnf("tile %s attempt %d/%d failed", tile, attempt, policy.MaxAttempts)
			return err
		}
		out = fc
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTileExhausted, err)
	}
	return out, nil
}

// pace waits until the limiter allows the next attempt, using the harvester's
// clock rather than the limiter's own.
func (h *Harvester) pace(ctx context.Context, limiter *rate.Limiter) error {
	now := h.Clock.Now()
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("pacing limiter refused reservation")
	}
	if d := r.DelayFrom(now); d > 0 {
		if err := h.Clock.Sleep(ctx, d); err != nil {
			r.CancelAt(now)
			return err
		}
	}
	return nil
}
