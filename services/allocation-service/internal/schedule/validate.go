package schedule

import (
	"fmt"
	"regexp"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// FormatError marks a date or time field that fails its pattern or range check.
type FormatError struct {
	Field string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid value", e.Field, e.Value)
}

// OrderingError marks an end that is missing its counterpart or not strictly
// after the start.
type OrderingError struct {
	Reason string
}

func (e *OrderingError) Error() string {
	return e.Reason
}

// ValidateFields checks a candidate's date/time fields and returns the first
// violation: start date format, start time format, end-presence pairing, end
// formats, then end-after-start ordering.
func ValidateFields(a model.Allocation) error {
	if !validDate(a.StartDate) {
		return &FormatError{Field: "start_date", Value: a.StartDate}
	}
	if !timePattern.MatchString(a.StartTime) {
		return &FormatError{Field: "start_time", Value: a.StartTime}
	}
	if (a.EndDate == "") != (a.EndTime == "") {
		return &OrderingError{Reason: "end_date and end_time must be provided together"}
	}
	if a.EndDate == "" {
		return nil
	}
	if !validDate(a.EndDate) {
		return &FormatError{Field: "end_date", Value: a.EndDate}
	}
	if !timePattern.MatchString(a.EndTime) {
		return &FormatError{Field: "end_time", Value: a.EndTime}
	}

	start, _ := a.StartInstant()
	end, _ := a.EndInstant()
	if !end.After(start) {
		return &OrderingError{Reason: "end must be strictly after start"}
	}
	return nil
}

// QuarterHourAligned reports whether a clock value lands on a quarter hour.
// It is deliberately not part of ValidateFields; entry points opt in per
// deployment (REQUIRE_QUARTER_HOUR in the HTTP layer).
func QuarterHourAligned(clock string) bool {
	if !timePattern.MatchString(clock) {
		return false
	}
	switch clock[3:] {
	case "00", "15", "30", "45":
		return true
	default:
		return false
	}
}

func validDate(date string) bool {
	if !datePattern.MatchString(date) {
		return false
	}
	// The pattern admits month 13 or day 45; the calendar does not.
	_, ok := model.CombineInstant(date, "00:00")
	return ok
}
