// Package runtime holds the filter list currently loaded by the daemon.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/objfilter/objfilter/internal/filter"
	"github.com/objfilter/objfilter/internal/store"
	"go.uber.org/zap"
)

// Filters is the in-memory snapshot of the stored filter list, kept in sort
// order. The snapshot is replaced as a whole on update; the definitions
// inside it are treated as immutable.
type Filters struct {
	store  *store.Store
	logger *zap.SugaredLogger

	mu   sync.RWMutex
	defs []map[string]any
}

// NewFilters returns an empty runtime filter list backed by s.
func NewFilters(s *store.Store, logger *zap.SugaredLogger) *Filters {
	return &Filters{store: s, logger: logger}
}

// UpdateFromStore replaces the snapshot with the currently stored definitions.
func (f *Filters) UpdateFromStore(ctx context.Context) error {
	defs, err := f.store.Filters(ctx)
	if err != nil {
		return err
	}
	defs = filter.SortFilters(defs)

	f.mu.Lock()
	f.defs = defs
	f.mu.Unlock()

	f.logger.Debugw("loaded filter definitions", zap.Int("count", len(defs)))
	return nil
}

// PeriodicUpdates reloads the filter list every interval until ctx is done.
func (f *Filters) PeriodicUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := f.UpdateFromStore(ctx); err != nil {
				f.logger.Errorw("periodic filter update failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Snapshot returns the current sorted filter list. Callers must not modify
// the returned definitions.
func (f *Filters) Snapshot() []map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defs
}

// Classify returns the name of the first filter in the list that target
// passes. The snapshot was sanitized on load, so the per-call sanitize pass
// is skipped.
func (f *Filters) Classify(target any) (string, error) {
	return filter.FirstSuccess(target, f.Snapshot(), false)
}
