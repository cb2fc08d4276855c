package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/EmpoweredVote/EV-Prospection/internal/buildings"
	"github.com/EmpoweredVote/EV-Prospection/internal/config"
	"github.com/EmpoweredVote/EV-Prospection/internal/harvest"
	"github.com/EmpoweredVote/EV-Prospection/internal/harvest/overpass"
	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	var (
		jobPath     = flag.String("config", "", "YAML harvest job (optional)")
		output      = flag.String("out", "", "output GeoJSON file (overrides the job)")
		step        = flag.Float64("step", 0, "tile size in degrees (overrides the job)")
		maxAttempts = flag.Int("attempts", 0, "attempts per tile (overrides the job)")
		endpoint    = flag.String("endpoint", "", "Overpass interpreter URL (overrides the job)")
	)
	flag.Parse()

	godotenv.Load(".env.local")
	logging.Init("harvest")
	log := logging.For("harvest")

	job := config.DefaultHarvestJob()
	if *jobPath != "" {
		var err error
		if job, err = config.LoadHarvestJob(*jobPath); err != nil {
			log.Fatal(err)
		}
	}
	if *output != "" {
		job.Output = *output
	}
	if *step > 0 {
		job.Step = *step
	}
	if *maxAttempts > 0 {
		job.MaxAttempts = *maxAttempts
	}
	if *endpoint != "" {
		job.Endpoint = *endpoint
	}
	if err := job.Validate(); err != nil {
		log.Fatal(err)
	}

	pacing, _ := job.PacingDuration()
	backoff, _ := job.BackoffDuration()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := harvest.New(overpass.NewClient(job.Endpoint), pacing, backoff)
	res, err := h.Harvest(ctx, job.BBox.Bound(), job.Step, job.MaxAttempts)
	if err != nil {
		log.Fatalf("harvest: %v", err)
	}

	if err := buildings.WriteCollection(job.Output, res.Collection); err != nil {
		log.Fatalf("write buildings: %v", err)
	}
	manifestPath := manifestPathFor(job.Output)
	m := res.Manifest()
	if err := harvest.WriteManifest(manifestPath, m); err != nil {
		log.Fatalf("write manifest: %v", err)
	}

	fmt.Printf("✓ %d features from %d/%d tiles written to %s\n", m.Features, m.Succeeded, m.Tiles, job.Output)
	if len(m.Failed) > 0 {
		fmt.Printf("✗ %d tiles failed after %d attempts, see %s\n", len(m.Failed), job.MaxAttempts, manifestPath)
		for _, t := range m.Failed {
			fmt.Printf("  (%d,%d) lat %.4f lon %.4f\n", t.Row, t.Col, t.South, t.West)
		}
	}
	if m.Cancelled {
		fmt.Printf("interrupted: %d tiles never ran\n", m.Pending)
		os.Exit(1)
	}
}

// manifestPathFor puts the manifest next to the dataset: x.geojson gives
// x.manifest.json.
func manifestPathFor(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".manifest.json"
}
