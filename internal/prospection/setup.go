package prospection

import (
	"fmt"

	"github.com/EmpoweredVote/EV-Prospection/internal/config"
	"github.com/EmpoweredVote/EV-Prospection/internal/db"
	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
)

// NewStore opens the backend selected by cfg and migrates its tables.
func NewStore(cfg config.Config) (Store, error) {
	log := logging.For("prospection")

	switch cfg.Backend {
	case config.BackendPostgres:
		conn, err := db.OpenPostgres(cfg.DatabaseURL, cfg.Schema)
		if err != nil {
			return nil, err
		}
		s := NewGormStore(conn)
		if err := s.Migrate(); err != nil {
			return nil, err
		}
		log.Infof("using postgres store (schema %s)", cfg.Schema)
		return s, nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s := NewGormStore(conn)
		if err := s.Migrate(); err != nil {
			return nil, err
		}
		log.Infof("using sqlite store at %s", cfg.SQLitePath)
		return s, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, prospections are lost on restart")
		return NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("%w: %s", config.ErrUnknownBackend, cfg.Backend)
}
