package model

import "testing"

func TestIsOpen(t *testing.T) {
	cases := []struct {
		name    string
		endDate string
		endTime string
		want    bool
	}{
		{"no end at all", "", "", true},
		{"end date only", "2026-03-02", "", true},
		{"end time only", "", "16:00", true},
		{"fully closed", "2026-03-02", "16:00", false},
	}
	for _, tc := range cases {
		a := Allocation{StartDate: "2026-03-02", StartTime: "08:00", EndDate: tc.endDate, EndTime: tc.endTime}
		if got := a.IsOpen(); got != tc.want {
			t.Fatalf("%s: IsOpen() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	a := Allocation{StartDate: "2026-03-02", StartTime: "08:00", EndDate: "2026-03-02", EndTime: "12:30"}
	mins, ok := a.DurationMinutes()
	if !ok {
		t.Fatal("expected duration for closed allocation")
	}
	if mins != 270 {
		t.Fatalf("expected 270 minutes, got %d", mins)
	}

	open := Allocation{StartDate: "2026-03-02", StartTime: "08:00"}
	if _, ok := open.DurationMinutes(); ok {
		t.Fatal("expected no duration for open allocation")
	}
}

func TestDurationMinutesAcrossMidnight(t *testing.T) {
	a := Allocation{StartDate: "2026-03-02", StartTime: "22:00", EndDate: "2026-03-03", EndTime: "02:00"}
	mins, ok := a.DurationMinutes()
	if !ok {
		t.Fatal("expected duration")
	}
	if mins != 240 {
		t.Fatalf("expected 240 minutes, got %d", mins)
	}
}

func TestDurationHoursRounding(t *testing.T) {
	cases := []struct {
		endTime string
		want    float64
	}{
		{"09:30", 1.5},   // 90 min
		{"09:40", 1.67},  // 100 min -> 1.666... rounds up
		{"08:20", 0.33},  // 20 min -> 0.333... rounds down
		{"08:59", 0.98},  // 59 min -> 0.98333...
		{"16:00", 8},     // exact
	}
	for _, tc := range cases {
		a := Allocation{StartDate: "2026-03-02", StartTime: "08:00", EndDate: "2026-03-02", EndTime: tc.endTime}
		hours, ok := a.DurationHours()
		if !ok {
			t.Fatalf("%s: expected hours", tc.endTime)
		}
		if hours != tc.want {
			t.Fatalf("%s: expected %v hours, got %v", tc.endTime, tc.want, hours)
		}
	}
}
