package schedule

import "github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"

// Overlaps reports whether two allocations contend for the same resource's time.
//
// Open (unterminated) allocations are special-cased rather than treated as
// unbounded intervals: an open allocation conflicts with an earlier allocation
// that is still running at its start instant, but not with allocations that
// begin after it. The open/closed cases are intentionally not mirror images;
// keep the branch order as is.
func Overlaps(a, b model.Allocation) bool {
	if a.ResourceID != b.ResourceID {
		return false
	}

	aStart, ok := a.StartInstant()
	if !ok {
		return false
	}
	bStart, ok := b.StartInstant()
	if !ok {
		return false
	}

	switch {
	case a.IsOpen() && b.IsOpen():
		// Same resource cannot report two simultaneous open-ended starts.
		return aStart.Equal(bStart)

	case a.IsOpen():
		// a's start instant falls inside b.
		bEnd, bHasEnd := b.EndInstant()
		return bStart.Before(aStart) && (!bHasEnd || bEnd.After(aStart))

	case b.IsOpen():
		// b's start instant falls inside a.
		aEnd, _ := a.EndInstant()
		return aStart.Before(bStart) && aEnd.After(bStart)

	default:
		// Half-open interval intersection; touching endpoints are legal.
		aEnd, _ := a.EndInstant()
		bEnd, _ := b.EndInstant()
		return aStart.Before(bEnd) && aEnd.After(bStart)
	}
}
