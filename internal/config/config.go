package config

import (
	"errors"
	"os"
	"strings"
)

// StoreBackend identifies which persistence backend holds prospection records.
type StoreBackend string

const (
	BackendPostgres StoreBackend = "postgres"
	BackendSQLite   StoreBackend = "sqlite"
	BackendMemory   StoreBackend = "memory"
)

const (
	DefaultPort          = "5050"
	DefaultSQLitePath    = "prospection.db"
	DefaultBuildingsFile = "buildings15e-full.geojson"
	DefaultSchema        = "prospection"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required for postgres backend")
	ErrMissingSQLitePath  = errors.New("SQLITE_PATH must not be empty for sqlite backend")
	ErrUnknownBackend     = errors.New("unknown store backend")
)

// Config holds the server configuration.
type Config struct {
	Port string

	// Backend selects where prospection records live.
	Backend StoreBackend

	// Postgres (Supabase) connection string, used by the postgres backend.
	DatabaseURL string
	// Schema holding the prospection tables on Postgres.
	Schema string

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string

	// BuildingsFile is the GeoJSON dataset produced by cmd/harvest.
	BuildingsFile string

	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - PORT: listen port (default: 5050)
//   - STORE_BACKEND: "postgres", "sqlite" or "memory" (default: postgres when
//     DATABASE_URL is set, sqlite otherwise)
//   - DATABASE_URL: Postgres DSN
//   - DB_SCHEMA: Postgres schema for the tables (default: prospection)
//   - SQLITE_PATH: SQLite file (default: prospection.db)
//   - BUILDINGS_FILE: building dataset (default: buildings15e-full.geojson)
//   - CORS_ORIGINS: comma separated allow-list
func LoadFromEnv() Config {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	backend := StoreBackend(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))))
	if backend == "" {
		if dsn != "" {
			backend = BackendPostgres
		} else {
			backend = BackendSQLite
		}
	}

	return Config{
		Port:          getEnv("PORT", DefaultPort),
		Backend:       backend,
		DatabaseURL:   dsn,
		Schema:        getEnv("DB_SCHEMA", DefaultSchema),
		SQLitePath:    getEnv("SQLITE_PATH", DefaultSQLitePath),
		BuildingsFile: getEnv("BUILDINGS_FILE", DefaultBuildingsFile),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
	}
}

// Validate checks that the configuration is usable for the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	case BackendMemory:
	default:
		return ErrUnknownBackend
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
