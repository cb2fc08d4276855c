package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/harvest/overpass"
	"github.com/goccy/go-yaml"
	"github.com/paulmach/orb"
)

var ErrInvalidHarvestJob = errors.New("invalid harvest job")

// BBox is a geographic bounding box in degrees.
type BBox struct {
	LatMin float64 `yaml:"lat_min"`
	LonMin float64 `yaml:"lon_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMax float64 `yaml:"lon_max"`
}

// Bound converts the box to an orb.Bound (X = lon, Y = lat).
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LonMin, b.LatMin},
		Max: orb.Point{b.LonMax, b.LatMax},
	}
}

// HarvestJob describes one run of cmd/harvest. Durations are Go duration
// strings ("1500ms", "2s").
type HarvestJob struct {
	BBox        BBox    `yaml:"bbox"`
	Step        float64 `yaml:"step"`
	MaxAttempts int     `yaml:"max_attempts"`
	Backoff     string  `yaml:"backoff"`
	Pacing      string  `yaml:"pacing"`
	Endpoint    string  `yaml:"endpoint"`
	Output      string  `yaml:"output"`
}

// DefaultHarvestJob covers the 15th arrondissement of Paris and writes the
// dataset the server loads by default.
func DefaultHarvestJob() HarvestJob {
	return HarvestJob{
		BBox:        BBox{LatMin: 48.830, LonMin: 2.275, LatMax: 48.860, LonMax: 2.305},
		Step:        0.0025,
		MaxAttempts: 3,
		Backoff:     "1500ms",
		Pacing:      "750ms",
		Endpoint:    overpass.DefaultEndpoint,
		Output:      DefaultBuildingsFile,
	}
}

// LoadHarvestJob reads a YAML job file on top of DefaultHarvestJob. Fields
// missing from the file keep their default.
func LoadHarvestJob(path string) (HarvestJob, error) {
	job := DefaultHarvestJob()

	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("read harvest job: %w", err)
	}
	if err := yaml.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("parse harvest job %s: %w", path, err)
	}
	return job, job.Validate()
}

// BackoffDuration parses Backoff.
func (j HarvestJob) BackoffDuration() (time.Duration, error) {
	return parseDuration("backoff", j.Backoff)
}

// PacingDuration parses Pacing.
func (j HarvestJob) PacingDuration() (time.Duration, error) {
	return parseDuration("pacing", j.Pacing)
}

func (j HarvestJob) Validate() error {
	if j.Step <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidHarvestJob)
	}
	if j.BBox.LatMax <= j.BBox.LatMin || j.BBox.LonMax <= j.BBox.LonMin {
		return fmt.Errorf("%w: empty bbox", ErrInvalidHarvestJob)
	}
	if j.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidHarvestJob)
	}
	if j.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidHarvestJob)
	}
	if j.Output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidHarvestJob)
	}
	if _, err := j.BackoffDuration(); err != nil {
		return err
	}
	if _, err := j.PacingDuration(); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidHarvestJob, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidHarvestJob, field)
	}
	return d, nil
}
