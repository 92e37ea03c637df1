package erp

import "testing"

func TestCostCode(t *testing.T) {
	cases := []struct {
		taskID string
		want   string
	}{
		{"P100-030-0007", "P100.030"},
		{"P100-030", "P100.030"},
		{"P100", "P100"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CostCode(tc.taskID); got != tc.want {
			t.Errorf("CostCode(%q) = %q, want %q", tc.taskID, got, tc.want)
		}
	}
}

func TestBuildLine(t *testing.T) {
	line, err := BuildLine("a1", "r1", "P100-030-0007", "2026-03-02", 7.5)
	if err != nil {
		t.Fatalf("BuildLine: %v", err)
	}
	if line.CostCode != "P100.030" {
		t.Fatalf("cost code = %s, want P100.030", line.CostCode)
	}
	if line.Hours != 7.5 {
		t.Fatalf("hours = %v, want 7.5", line.Hours)
	}
}

func TestBuildLineRejectsIncomplete(t *testing.T) {
	if _, err := BuildLine("a1", "", "P100-030", "2026-03-02", 7.5); err == nil {
		t.Fatal("missing resource id must be rejected")
	}
	if _, err := BuildLine("a1", "r1", "P100-030", "2026-03-02", 0); err == nil {
		t.Fatal("zero hours must be rejected")
	}
}
