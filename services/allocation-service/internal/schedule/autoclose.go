package schedule

import (
	"context"
	"errors"
	"fmt"
)

// CloseOpenShifts closes every open allocation for the resource/day against the
// start of its chronological successor. The last allocation of the day has no
// successor and may stay open, so after this pass at most one open allocation
// remains per resource and day.
//
// Saves are attempted independently: a failed save does not stop the walk.
// All save failures are joined into the returned error.
func (e *Engine) CloseOpenShifts(ctx context.Context, resourceID, date string) error {
	allocs, err := e.store.FindByResourceAndDate(ctx, resourceID, date)
	if err != nil {
		return fmt.Errorf("load allocations for %s on %s: %w", resourceID, date, err)
	}

	var errs []error
	for i := 0; i+1 < len(allocs); i++ {
		if !allocs[i].IsOpen() {
			continue
		}
		alloc := allocs[i]
		next := allocs[i+1]
		alloc.EndDate = next.StartDate
		alloc.EndTime = next.StartTime
		if err := e.store.Save(ctx, &alloc); err != nil {
			errs = append(errs, fmt.Errorf("close allocation %s: %w", alloc.ID, err))
		}
	}
	return errors.Join(errs...)
}
