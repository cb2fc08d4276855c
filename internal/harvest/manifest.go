package harvest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest summarizes a run for the operator, failed tiles first of all.
type Manifest struct {
	RunID       uuid.UUID    `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	BBox        [4]float64   `json:"bbox"` // lat_min, lon_min, lat_max, lon_max
	Step        float64      `json:"step"`
	MaxAttempts int          `json:"max_attempts"`
	Tiles       int          `json:"tiles"`
	Succeeded   int          `json:"succeeded"`
	Pending     int          `json:"pending"`
	Features    int          `json:"features"`
	Cancelled   bool         `json:"cancelled"`
	Failed      []FailedTile `json:"failed"`
}

// FailedTile is a tile to re-harvest by hand.
type FailedTile struct {
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	South    float64 `json:"south"`
	West     float64 `json:"west"`
	North    float64 `json:"north"`
	East     float64 `json:"east"`
	Attempts int     `json:"attempts"`
}

func (r *Result) Manifest() Manifest {
	m := Manifest{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		BBox:        [4]float64{r.BBox.Min.Lat(), r.BBox.Min.Lon(), r.BBox.Max.Lat(), r.BBox.Max.Lon()},
		Step:        r.Step,
		MaxAttempts: r.MaxAttempts,
		Tiles:       len(r.Tiles),
		Features:    len(r.Collection.Features),
		Cancelled:   r.Cancelled,
		Failed:      make([]FailedTile, 0, len(r.Failed)),
	}
	for _, t := range r.Tiles {
		switch t.Status {
		case Succeeded:
			m.Succeeded++
		case Pending:
			m.Pending++
		}
	}
	for _, t := range r.Failed {
		m.Failed = append(m.Failed, FailedTile{
			Row:      t.Row,
			Col:      t.Col,
			South:    t.South(),
			West:     t.West(),
			North:    t.North(),
			East:     t.East(),
			Attempts: t.Attempts,
		})
	}
	return m
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
