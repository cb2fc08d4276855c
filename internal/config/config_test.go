package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/harvest/overpass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := LoadFromEnv()

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLitePath)
	assert.Empty(t, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_PostgresWhenDSNSet(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://example.org ,")

	cfg := LoadFromEnv()

	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, []string{"http://localhost:5173", "https://example.org"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Config{Backend: BackendPostgres}.Validate(), ErrMissingDatabaseURL)
	assert.ErrorIs(t, Config{Backend: BackendSQLite}.Validate(), ErrMissingSQLitePath)
	assert.ErrorIs(t, Config{Backend: "redis"}.Validate(), ErrUnknownBackend)
	assert.NoError(t, Config{Backend: BackendMemory}.Validate())
}

func TestLoadHarvestJob_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	body := `
bbox:
  lat_min: 48.0
  lon_min: 2.0
  lat_max: 48.01
  lon_max: 2.01
step: 0.005
pacing: 2s
output: out.geojson
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	job, err := LoadHarvestJob(path)
	require.NoError(t, err)

	assert.Equal(t, 0.005, job.Step)
	assert.Equal(t, "out.geojson", job.Output)
	assert.Equal(t, 3, job.MaxAttempts, "unset fields keep defaults")
	assert.Equal(t, overpass.DefaultEndpoint, job.Endpoint)

	pacing, err := job.PacingDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, pacing)

	b := job.BBox.Bound()
	assert.Equal(t, 2.0, b.Min.X())
	assert.Equal(t, 48.0, b.Min.Y())
}

func TestHarvestJob_Validate(t *testing.T) {
	job := DefaultHarvestJob()
	require.NoError(t, job.Validate())

	bad := job
	bad.Step = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidHarvestJob)

	bad = job
	bad.MaxAttempts = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidHarvestJob)

	bad = job
	bad.Backoff = "soon"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidHarvestJob)

	bad = job
	bad.BBox.LatMax = bad.BBox.LatMin
	assert.ErrorIs(t, bad.Validate(), ErrInvalidHarvestJob)
}

func TestDefaultHarvestJob_FeedsTheServer(t *testing.T) {
	t.Setenv("BUILDINGS_FILE", "")

	job := DefaultHarvestJob()
	cfg := LoadFromEnv()

	assert.Equal(t, cfg.BuildingsFile, job.Output, "a default harvest produces the file the server loads")
	assert.Equal(t, overpass.DefaultEndpoint, job.Endpoint)
}
