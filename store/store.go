// Package store provides the persistent ticket store behind the lifecycle
// engine: the ticket map, the guild setup and the sequence counter, on one
// of three interchangeable backends.
package store

import (
	"fmt"
	"log"

	"ticket-bot/config"
	"ticket-bot/ticket"
)

// New selects a backend from storage.driver. Missing prior state is never an
// error; every backend starts empty on first run.
func New(cfg *config.StorageConfig) (ticket.Store, error) {
	switch cfg.Driver {
	case "json":
		s, err := newJSONStore(cfg.JSON.Dir)
		if err != nil {
			return nil, fmt.Errorf("json store: %w", err)
		}
		log.Printf("[store] JSON store initialised in %s", cfg.JSON.Dir)
		return s, nil

	case "sqlite":
		s, err := newSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		log.Printf("[store] SQLite store initialised at %s", cfg.SQLite.Path)
		return s, nil

	case "mongodb":
		s, err := newMongoStore(&cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongodb store: %w", err)
		}
		log.Printf("[store] MongoDB store initialised (%s)", cfg.MongoDB.Database)
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s (use \"json\", \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}
