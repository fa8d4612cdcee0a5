package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"imagecurator/database"
	"imagecurator/logging"
)

// app is an opened catalog plus, for writers, the exclusive catalog lock
type app struct {
	catalog *database.Catalog
	lock    *flock.Flock
}

// openApp opens the configured catalog. Writers take <database>.lock so two
// curator processes never interleave a recluster with a resolution.
func (o *rootOptions) openApp(ctx context.Context, write bool) (*app, error) {
	dbPath := o.cfg.Paths.Database
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	a := &app{}
	if write {
		lock := flock.New(dbPath + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", database.ErrLocked, lock.Path())
		}
		a.lock = lock
	}

	catalog, err := database.Open(ctx, dbPath)
	if err != nil {
		a.unlock()
		return nil, err
	}
	a.catalog = catalog
	return a, nil
}

func (a *app) Close() {
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			logging.LogWarning("Failed to close catalog: %v", err)
		}
	}
	a.unlock()
}

func (a *app) unlock() {
	if a.lock == nil {
		return
	}
	if err := a.lock.Unlock(); err != nil {
		logging.LogWarning("Failed to release catalog lock: %v", err)
	}
	a.lock = nil
}
