package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// WorkingWindow bounds slot suggestions to the working day, expressed as
// minutes from midnight. It is explicit configuration: callers resolve it from
// the environment or from master data and pass it per call.
type WorkingWindow struct {
	StartMinute int
	EndMinute   int
}

func DefaultWorkingWindow() WorkingWindow {
	return WorkingWindow{StartMinute: 6 * 60, EndMinute: 22 * 60}
}

// TimeSlot is one suggested free window, always within a single calendar day.
type TimeSlot struct {
	Start string // HH:MM
	End   string // HH:MM
}

const maxSuggestions = 5

// An open allocation has no usable end; treating its end as one minute before
// midnight blocks every later gap of that day.
const openEndSentinel = 23*60 + 59

// SuggestSlots proposes up to five free windows of the requested length for the
// resource on the given day, in chronological order: the gap before the first
// allocation, gaps between adjacent allocations, and the gap after the last.
// All arithmetic is minute-granularity on the 24-hour clock.
func (e *Engine) SuggestSlots(ctx context.Context, resourceID, date string, durationMinutes int, win WorkingWindow) ([]TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, nil
	}

	allocs, err := e.store.FindByResourceAndDate(ctx, resourceID, date)
	if err != nil {
		return nil, fmt.Errorf("load allocations for %s on %s: %w", resourceID, date, err)
	}

	if len(allocs) == 0 {
		return []TimeSlot{slotAt(win.StartMinute, durationMinutes)}, nil
	}

	var slots []TimeSlot

	firstStart := minuteOfDay(allocs[0].StartTime)
	if firstStart > win.StartMinute && firstStart-win.StartMinute >= durationMinutes {
		slots = append(slots, slotAt(win.StartMinute, durationMinutes))
	}

	for i := 0; i+1 < len(allocs); i++ {
		freeFrom := openEndSentinel
		if cur := allocs[i]; !cur.IsOpen() && cur.EndDate == date {
			freeFrom = minuteOfDay(cur.EndTime)
		}
		nextStart := minuteOfDay(allocs[i+1].StartTime)
		if nextStart-freeFrom >= durationMinutes {
			slots = append(slots, slotAt(freeFrom, durationMinutes))
		}
	}

	last := allocs[len(allocs)-1]
	if !last.IsOpen() && last.EndDate == date {
		lastEnd := minuteOfDay(last.EndTime)
		if lastEnd < win.EndMinute && win.EndMinute-lastEnd >= durationMinutes {
			slots = append(slots, slotAt(lastEnd, durationMinutes))
		}
	}

	if len(slots) > maxSuggestions {
		slots = slots[:maxSuggestions]
	}
	return slots, nil
}

func minuteOfDay(clock string) int {
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

func slotAt(startMinute, durationMinutes int) TimeSlot {
	return TimeSlot{
		Start: formatMinute(startMinute),
		End:   formatMinute(startMinute + durationMinutes),
	}
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
