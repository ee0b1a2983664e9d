// Package store implements the solution store backends.
package store

import (
	"fmt"

	"github.com/kilianp07/rehearsal/config"
	corestore "github.com/kilianp07/rehearsal/core/store"
)

// New opens the backend selected by cfg.
func New(cfg config.StoreConfig) (corestore.ResultStore, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return corestore.NewMemoryStore(), nil
	case config.StoreJSONL:
		return NewJSONLStore(cfg.Path)
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
