package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// FindConflicts returns the existing allocations the candidate would collide
// with. excludeID skips one allocation id, used when re-validating an update
// against itself. The fetch window is padded by one day on each side so that
// midnight-spanning allocations from the neighbouring days are considered.
//
// A candidate missing its resource id, start date or start time cannot
// conflict with anything and yields an empty result. Field formats are the
// validator's responsibility; this is a pure read with no re-validation.
func (e *Engine) FindConflicts(ctx context.Context, candidate model.Allocation, excludeID string) ([]model.Allocation, error) {
	if candidate.ResourceID == "" || candidate.StartDate == "" || candidate.StartTime == "" {
		return nil, nil
	}

	from, ok := shiftDate(candidate.StartDate, -1)
	if !ok {
		return nil, nil
	}
	toBase := candidate.EndDate
	if toBase == "" {
		toBase = candidate.StartDate
	}
	to, ok := shiftDate(toBase, 1)
	if !ok {
		return nil, nil
	}

	existing, err := e.store.FindByResourceAndDateRange(ctx, candidate.ResourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load allocations for %s: %w", candidate.ResourceID, err)
	}

	var conflicts []model.Allocation
	for _, other := range existing {
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		if Overlaps(candidate, other) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts, nil
}

func shiftDate(date string, days int) (string, bool) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, days).Format(model.DateLayout), true
}
