package schedule

import "testing"

func TestOverlapsClosedPairs(t *testing.T) {
	cases := []struct {
		name string
		a    [4]string // start date, start time, end date, end time
		b    [4]string
		want bool
	}{
		{"disjoint before", [4]string{"2026-03-02", "08:00", "2026-03-02", "10:00"}, [4]string{"2026-03-02", "10:00", "2026-03-02", "12:00"}, false},
		{"touching boundaries", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, [4]string{"2026-03-02", "12:00", "2026-03-02", "16:00"}, false},
		{"partial overlap", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, [4]string{"2026-03-02", "11:00", "2026-03-02", "15:00"}, true},
		{"containment", [4]string{"2026-03-02", "08:00", "2026-03-02", "18:00"}, [4]string{"2026-03-02", "10:00", "2026-03-02", "12:00"}, true},
		{"identical", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, true},
		{"across midnight", [4]string{"2026-03-02", "22:00", "2026-03-03", "02:00"}, [4]string{"2026-03-03", "01:00", "2026-03-03", "05:00"}, true},
		{"different days", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, [4]string{"2026-03-03", "08:00", "2026-03-03", "12:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := closed("a", "r1", tc.a[0], tc.a[1], tc.a[2], tc.a[3])
			b := closed("b", "r1", tc.b[0], tc.b[1], tc.b[2], tc.b[3])
			if got := Overlaps(a, b); got != tc.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tc.want)
			}
			if got := Overlaps(b, a); got != tc.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlapsOpenFirst(t *testing.T) {
	a := open("a", "r1", "2026-03-02", "10:00")

	cases := []struct {
		name string
		b    [4]string
		want bool
	}{
		{"closed starts before and ends after open start", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, true},
		{"closed starts before and ends at open start", [4]string{"2026-03-02", "08:00", "2026-03-02", "10:00"}, false},
		{"closed starts at open start", [4]string{"2026-03-02", "10:00", "2026-03-02", "12:00"}, false},
		{"closed starts after open start", [4]string{"2026-03-02", "11:00", "2026-03-02", "13:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := closed("b", "r1", tc.b[0], tc.b[1], tc.b[2], tc.b[3])
			if got := Overlaps(a, b); got != tc.want {
				t.Fatalf("Overlaps(open, closed) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlapsOpenSecond(t *testing.T) {
	b := open("b", "r1", "2026-03-02", "10:00")

	cases := []struct {
		name string
		a    [4]string
		want bool
	}{
		{"closed spans open start", [4]string{"2026-03-02", "08:00", "2026-03-02", "12:00"}, true},
		{"closed ends at open start", [4]string{"2026-03-02", "08:00", "2026-03-02", "10:00"}, false},
		{"closed starts after open start", [4]string{"2026-03-02", "11:00", "2026-03-02", "13:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := closed("a", "r1", tc.a[0], tc.a[1], tc.a[2], tc.a[3])
			if got := Overlaps(a, b); got != tc.want {
				t.Fatalf("Overlaps(closed, open) = %v, want %v", got, tc.want)
			}
		})
	}
}

// An open allocation is not an infinite interval: it conflicts only with
// allocations whose interval contains its start. Anything starting after it
// is free to proceed.
func TestOverlapsOpenIsNotInfinite(t *testing.T) {
	op := open("a", "r1", "2026-03-02", "10:00")

	later := closed("b", "r1", "2026-03-02", "12:00", "2026-03-02", "16:00")
	if Overlaps(op, later) || Overlaps(later, op) {
		t.Fatal("open at 10:00 must not conflict with closed starting 12:00")
	}

	containing := closed("c", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00")
	if !Overlaps(op, containing) || !Overlaps(containing, op) {
		t.Fatal("open at 10:00 must conflict with closed spanning 10:00")
	}
}

func TestOverlapsBothOpen(t *testing.T) {
	a := open("a", "r1", "2026-03-02", "08:00")
	b := open("b", "r1", "2026-03-02", "10:00")
	if Overlaps(a, b) || Overlaps(b, a) {
		t.Fatal("two open allocations with different starts must not overlap")
	}
	same := open("c", "r1", "2026-03-02", "08:00")
	if !Overlaps(a, same) {
		t.Fatal("two open allocations with the same start must overlap")
	}
}

func TestOverlapsDifferentResources(t *testing.T) {
	a := closed("a", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00")
	b := closed("b", "r2", "2026-03-02", "08:00", "2026-03-02", "12:00")
	if Overlaps(a, b) {
		t.Fatal("allocations on different resources must never overlap")
	}
}

func TestOverlapsUnparsableFields(t *testing.T) {
	a := closed("a", "r1", "not-a-date", "08:00", "2026-03-02", "12:00")
	b := closed("b", "r1", "2026-03-02", "08:00", "2026-03-02", "12:00")
	if Overlaps(a, b) || Overlaps(b, a) {
		t.Fatal("unparsable start must yield no overlap")
	}
}
