package erp

import (
	"fmt"
	"strings"
)

// PostingLine is one labor or machine-time booking as the ERP expects it.
type PostingLine struct {
	AllocationID string  `json:"allocation_id"`
	ResourceID   string  `json:"resource_id"`
	TaskID       string  `json:"task_id"`
	WorkDate     string  `json:"work_date"` // YYYY-MM-DD
	Hours        float64 `json:"hours"`
	CostCode     string  `json:"cost_code"`
}

// Document is the posting batch sent to the ERP in one request.
type Document struct {
	BatchID string        `json:"batch_id"`
	Source  string        `json:"source"`
	Lines   []PostingLine `json:"lines"`
}

// CostCode derives the ERP cost code from a task id. Task ids follow the
// project convention <project>-<phase>-<seq>; the cost code is the first two
// segments joined with a dot. Anything shorter is passed through unchanged.
func CostCode(taskID string) string {
	parts := strings.Split(taskID, "-")
	if len(parts) < 2 {
		return taskID
	}
	return parts[0] + "." + parts[1]
}

// BuildLine validates and converts one closed allocation into a posting line.
func BuildLine(allocationID, resourceID, taskID, workDate string, hours float64) (PostingLine, error) {
	if allocationID == "" || resourceID == "" || taskID == "" || workDate == "" {
		return PostingLine{}, fmt.Errorf("posting line for %q missing required fields", allocationID)
	}
	if hours <= 0 {
		return PostingLine{}, fmt.Errorf("posting line for %s has non-positive hours %.2f", allocationID, hours)
	}
	return PostingLine{
		AllocationID: allocationID,
		ResourceID:   resourceID,
		TaskID:       taskID,
		WorkDate:     workDate,
		Hours:        hours,
		CostCode:     CostCode(taskID),
	}, nil
}
