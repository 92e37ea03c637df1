package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

func TestCloseOpenShiftsChain(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		open("a1", "r1", "2026-03-02", "08:00"),
		closed("a2", "r1", "2026-03-02", "12:00", "2026-03-02", "16:00"),
		open("a3", "r1", "2026-03-02", "16:00"),
	}}
	eng := NewEngine(store)

	if err := eng.CloseOpenShifts(context.Background(), "r1", "2026-03-02"); err != nil {
		t.Fatalf("CloseOpenShifts: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d allocations, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.ID != "a1" || got.EndDate != "2026-03-02" || got.EndTime != "12:00" {
		t.Fatalf("closed %+v, want a1 ending 2026-03-02 12:00", got)
	}

	for _, a := range store.allocs {
		if a.ID == "a3" && !a.IsOpen() {
			t.Fatal("last allocation of the day must stay open")
		}
	}
}

func TestCloseOpenShiftsNothingToDo(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		closed("a1", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00"),
		closed("a2", "r1", "2026-03-02", "12:00", "2026-03-02", "16:00"),
	}}
	eng := NewEngine(store)

	if err := eng.CloseOpenShifts(context.Background(), "r1", "2026-03-02"); err != nil {
		t.Fatalf("CloseOpenShifts: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("saved %d allocations, want none", len(store.saved))
	}
}

func TestCloseOpenShiftsSingleOpen(t *testing.T) {
	store := &fakeStore{allocs: []model.Allocation{
		open("a1", "r1", "2026-03-02", "08:00"),
	}}
	eng := NewEngine(store)

	if err := eng.CloseOpenShifts(context.Background(), "r1", "2026-03-02"); err != nil {
		t.Fatalf("CloseOpenShifts: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("a lone open allocation has no successor and must stay open")
	}
}

// A failing save must not stop the walk; later open allocations are still
// closed and every failure surfaces in the joined error.
func TestCloseOpenShiftsBestEffort(t *testing.T) {
	saveErr := errors.New("row lock timeout")
	store := &fakeStore{
		allocs: []model.Allocation{
			open("a1", "r1", "2026-03-02", "06:00"),
			open("a2", "r1", "2026-03-02", "09:00"),
			closed("a3", "r1", "2026-03-02", "12:00", "2026-03-02", "16:00"),
		},
		saveErr: map[string]error{"a1": saveErr},
	}
	eng := NewEngine(store)

	err := eng.CloseOpenShifts(context.Background(), "r1", "2026-03-02")
	if !errors.Is(err, saveErr) {
		t.Fatalf("err = %v, want joined save error", err)
	}
	if !strings.Contains(err.Error(), "a1") {
		t.Fatalf("err = %v, want the failed allocation id named", err)
	}

	if len(store.saved) != 1 || store.saved[0].ID != "a2" {
		t.Fatalf("saved %+v, want a2 closed despite the a1 failure", store.saved)
	}
	if store.saved[0].EndTime != "12:00" {
		t.Fatalf("a2 closed at %s, want 12:00", store.saved[0].EndTime)
	}
}

func TestCloseOpenShiftsLoadError(t *testing.T) {
	wantErr := errors.New("connection reset")
	eng := NewEngine(&fakeStore{findErr: wantErr})

	if err := eng.CloseOpenShifts(context.Background(), "r1", "2026-03-02"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped load error", err)
	}
}
