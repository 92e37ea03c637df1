package schedule

import (
	"context"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// Store is the narrow data-access surface the engine consumes. The pgx-backed
// repository implements it in production; tests use in-memory fakes.
//
// The engine's conflict check and the eventual insert of a new allocation are
// not atomic with respect to each other. Callers must pair the engine with a
// storage-level guard (the allocations table carries an exclusion constraint
// over resource and time range) to be race-free under concurrent creates.
type Store interface {
	// FindByResourceAndDateRange returns allocations whose start date falls in
	// [dateFrom, dateTo], ordered by start ascending.
	FindByResourceAndDateRange(ctx context.Context, resourceID, dateFrom, dateTo string) ([]model.Allocation, error)
	// FindByResourceAndDate returns the allocations starting on the given day,
	// ordered by start time ascending.
	FindByResourceAndDate(ctx context.Context, resourceID, date string) ([]model.Allocation, error)
	// Save upserts a single allocation.
	Save(ctx context.Context, alloc *model.Allocation) error
}

// Engine bundles the resource-time decision logic: conflict lookup, open-shift
// auto-closing and free-slot suggestion. It holds no state beyond its store.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}
