package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

func TestFindConflictsReportsOverlapping(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "10:00"),
		closed("a2", "r1", "2026-03-02", "11:00", "2026-03-02", "13:00"),
		closed("a3", "r2", "2026-03-02", "11:00", "2026-03-02", "13:00"),
	}}
	eng := NewEngine(store)

	candidate := closed("", "r1", "2026-03-02", "12:00", "2026-03-02", "15:00")
	got, err := eng.FindConflicts(context.Background(), candidate, "")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a2" {
		t.Fatalf("got %d conflicts, want exactly a2: %+v", len(got), got)
	}
}

func TestFindConflictsMissingFields(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "10:00"),
	}}
	eng := NewEngine(store)

	cases := []model.Allocation{
		{StartDate: "2026-03-02", StartTime: "08:00"},
		{ResourceID: "r1", StartTime: "08:00"},
		{ResourceID: "r1", StartDate: "2026-03-02"},
	}
	for _, candidate := range cases {
		got, err := eng.FindConflicts(context.Background(), candidate, "")
		if err != nil {
			t.Fatalf("FindConflicts: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("incomplete candidate %+v: got %d conflicts, want none", candidate, len(got))
		}
	}
}

func TestFindConflictsExcludesOwnID(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00"),
	}}
	eng := NewEngine(store)

	candidate := closed("a1", "r1", "2026-03-02", "09:00", "2026-03-02", "11:00")
	got, err := eng.FindConflicts(context.Background(), candidate, "a1")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("update against itself reported %d conflicts, want none", len(got))
	}
}

// An allocation that started the previous evening and runs past midnight must
// be picked up by the padded fetch window.
func TestFindConflictsGuardBand(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("night", "r1", "2026-03-01", "22:00", "2026-03-02", "06:00"),
	}}
	eng := NewEngine(store)

	candidate := closed("", "r1", "2026-03-02", "05:00", "2026-03-02", "08:00")
	got, err := eng.FindConflicts(context.Background(), candidate, "")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "night" {
		t.Fatalf("got %+v, want the midnight-spanning allocation", got)
	}
}

func TestFindConflictsStoreError(t *testing.T) {
	wantErr := errors.New("connection reset")
	eng := NewEngine(&fakeStore{findErr: wantErr})

	candidate := closed("", "r1", "2026-03-02", "08:00", "2026-03-02", "10:00")
	_, err := eng.FindConflicts(context.Background(), candidate, "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestFindConflictsOpenCandidate(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00"),
		closed("a2", "r1", "2026-03-02", "13:00", "2026-03-02", "15:00"),
	}}
	eng := NewEngine(store)

	candidate := open("", "r1", "2026-03-02", "10:00")
	got, err := eng.FindConflicts(context.Background(), candidate, "")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("got %+v, want only the allocation containing the open start", got)
	}
}
