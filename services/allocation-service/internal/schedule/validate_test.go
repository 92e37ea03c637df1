package schedule

import (
	"errors"
	"testing"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

func TestValidateFields(t *testing.T) {
	cases := []struct {
		name      string
		alloc     model.Allocation
		wantField string // non-empty means FormatError on this field
		wantOrder bool   // true means OrderingError
	}{
		{"valid closed", closed("", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00"), "", false},
		{"valid open", open("", "r1", "2026-03-02", "08:00"), "", false},
		{"valid across midnight", closed("", "r1", "2026-03-02", "22:00", "2026-03-03", "02:00"), "", false},
		{"bad start date pattern", closed("", "r1", "02-03-2026", "08:00", "2026-03-02", "12:00"), "start_date", false},
		{"impossible start date", closed("", "r1", "2026-13-45", "08:00", "2026-03-02", "12:00"), "start_date", false},
		{"bad start time", closed("", "r1", "2026-03-02", "25:00", "2026-03-02", "12:00"), "start_time", false},
		{"bad start minute", closed("", "r1", "2026-03-02", "08:61", "2026-03-02", "12:00"), "start_time", false},
		{"end date without end time", model.Allocation{ResourceID: "r1", StartDate: "2026-03-02", StartTime: "08:00", EndDate: "2026-03-02"}, "", true},
		{"end time without end date", model.Allocation{ResourceID: "r1", StartDate: "2026-03-02", StartTime: "08:00", EndTime: "12:00"}, "", true},
		{"bad end date", closed("", "r1", "2026-03-02", "08:00", "garbage", "12:00"), "end_date", false},
		{"bad end time", closed("", "r1", "2026-03-02", "08:00", "2026-03-02", "9am"), "end_time", false},
		{"end equals start", closed("", "r1", "2026-03-02", "08:00", "2026-03-02", "08:00"), "", true},
		{"end before start", closed("", "r1", "2026-03-02", "12:00", "2026-03-02", "08:00"), "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFields(tc.alloc)
			switch {
			case tc.wantField != "":
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("err = %v, want FormatError", err)
				}
				if fe.Field != tc.wantField {
					t.Fatalf("field = %s, want %s", fe.Field, tc.wantField)
				}
			case tc.wantOrder:
				var oe *OrderingError
				if !errors.As(err, &oe) {
					t.Fatalf("err = %v, want OrderingError", err)
				}
			default:
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
			}
		})
	}
}

// The start date is checked before the start time, so a record with both wrong
// reports the date first.
func TestValidateFieldsRuleOrder(t *testing.T) {
	err := ValidateFields(model.Allocation{ResourceID: "r1", StartDate: "bad", StartTime: "bad"})
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Field != "start_date" {
		t.Fatalf("err = %v, want FormatError on start_date", err)
	}
}

func TestQuarterHourAligned(t *testing.T) {
	aligned := []string{"06:00", "09:15", "12:30", "23:45"}
	for _, clock := range aligned {
		if !QuarterHourAligned(clock) {
			t.Fatalf("QuarterHourAligned(%s) = false, want true", clock)
		}
	}
	misaligned := []string{"06:01", "09:14", "12:59", "garbage", ""}
	for _, clock := range misaligned {
		if QuarterHourAligned(clock) {
			t.Fatalf("QuarterHourAligned(%s) = true, want false", clock)
		}
	}
}
