package model

import (
	"math"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Allocation assigns one resource (a worker or a machine) to a construction task
// for a span of time. Date and clock values are kept as the field-entered strings;
// an allocation with either end field missing is open (the shift is still running).
type Allocation struct {
	ID         string
	ResourceID string
	TaskID     string
	StartDate  string // YYYY-MM-DD
	StartTime  string // HH:MM
	EndDate    string // empty = open
	EndTime    string // empty = open
	Note       string
	Lat        *float64
	Lon        *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOpen reports whether the allocation has no recorded end yet.
func (a Allocation) IsOpen() bool {
	return a.EndDate == "" || a.EndTime == ""
}

// StartInstant combines start date and time into a single instant.
func (a Allocation) StartInstant() (time.Time, bool) {
	return CombineInstant(a.StartDate, a.StartTime)
}

// EndInstant combines end date and time into a single instant; false while open.
func (a Allocation) EndInstant() (time.Time, bool) {
	if a.IsOpen() {
		return time.Time{}, false
	}
	return CombineInstant(a.EndDate, a.EndTime)
}

// DurationMinutes is the whole-minute length of a closed allocation.
func (a Allocation) DurationMinutes() (int, bool) {
	start, ok := a.StartInstant()
	if !ok {
		return 0, false
	}
	end, ok := a.EndInstant()
	if !ok {
		return 0, false
	}
	return int(end.Sub(start) / time.Minute), true
}

// DurationHours is DurationMinutes divided by 60, rounded half-up to two decimals.
func (a Allocation) DurationHours() (float64, bool) {
	mins, ok := a.DurationMinutes()
	if !ok {
		return 0, false
	}
	return math.Floor(float64(mins)/60*100+0.5) / 100, true
}

func CombineInstant(date, clock string) (time.Time, bool) {
	t, err := time.Parse(DateLayout+" "+TimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
