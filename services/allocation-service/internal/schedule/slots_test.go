package schedule

import (
	"context"
	"fmt"
	"testing"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

func TestSuggestSlotsEmptyDay(t *testing.T) {
	eng := NewEngine(&fakeStore{})

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 60, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	want := []TimeSlot{{Start: "06:00", End: "07:00"}}
	assertSlots(t, got, want)
}

func TestSuggestSlotsGaps(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "10:00"),
		closed("a2", "r1", "2026-03-02", "14:00", "2026-03-02", "16:00"),
	}}
	eng := NewEngine(store)

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 60, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	want := []TimeSlot{
		{Start: "06:00", End: "07:00"},
		{Start: "10:00", End: "11:00"},
		{Start: "16:00", End: "17:00"},
	}
	assertSlots(t, got, want)
}

func TestSuggestSlotsSkipsSmallGaps(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "06:00", "2026-03-02", "10:00"),
		closed("a2", "r1", "2026-03-02", "10:30", "2026-03-02", "21:30"),
	}}
	eng := NewEngine(store)

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 60, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want no slots when every gap is under an hour", got)
	}
}

// An open allocation suppresses the gap between itself and its successor.
// The trailing gap depends only on the last allocation, which here is closed.
func TestSuggestSlotsOpenBlocksFollowingGap(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		open("a1", "r1", "2026-03-02", "08:00"),
		closed("a2", "r1", "2026-03-02", "14:00", "2026-03-02", "16:00"),
	}}
	eng := NewEngine(store)

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 60, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	want := []TimeSlot{
		{Start: "06:00", End: "07:00"},
		{Start: "16:00", End: "17:00"},
	}
	assertSlots(t, got, want)
}

func TestSuggestSlotsOpenLastNoTrailingGap(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		open("a1", "r1", "2026-03-02", "08:00"),
	}}
	eng := NewEngine(store)

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 60, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	want := []TimeSlot{{Start: "06:00", End: "07:00"}}
	assertSlots(t, got, want)
}

func TestSuggestSlotsTruncatesToFive(t *testing.T) {
	var allocs []model.Allocation
	// Hourly half-hour bookings leave a 30-minute gap after each one.
	for i := 0; i < 8; i++ {
		h := 7 + i
		allocs = append(allocs, closed(
			fmt.Sprintf("a%d", i), "r1",
			"2026-03-02", fmt.Sprintf("%02d:00", h),
			"2026-03-02", fmt.Sprintf("%02d:30", h),
		))
	}
	eng := NewEngine(&fakeStore{allocs: allocs})

	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 30, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d slots, want capped at 5", len(got))
	}
	want := []TimeSlot{
		{Start: "06:00", End: "06:30"},
		{Start: "07:30", End: "08:00"},
		{Start: "08:30", End: "09:00"},
		{Start: "09:30", End: "10:00"},
		{Start: "10:30", End: "11:00"},
	}
	assertSlots(t, got, want)
}

func TestSuggestSlotsNonPositiveDuration(t *testing.T) {
	eng := NewEngine(&fakeStore{})
	got, err := eng.SuggestSlots(context.Background(), "r1", "2026-03-02", 0, DefaultWorkingWindow())
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want none for zero duration", got)
	}
}

func assertSlots(t *testing.T, got, want []TimeSlot) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
