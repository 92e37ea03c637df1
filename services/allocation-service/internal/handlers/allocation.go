package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/audit"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/outbox"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/policy"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/schedule"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/storage"
)

type AllocationHandler struct {
	repo           *storage.AllocationRepository
	resources      *storage.ResourceRepository
	engine         *schedule.Engine
	outboxRepo     *outbox.Repository
	auditRepo      *audit.Repository
	logger         *slog.Logger
	policy         policy.Provider
	defaultWindow  schedule.WorkingWindow
	requireQuarter bool
}

type Config struct {
	DefaultWindow  schedule.WorkingWindow
	RequireQuarter bool
}

func NewAllocationHandler(
	repo *storage.AllocationRepository,
	resources *storage.ResourceRepository,
	engine *schedule.Engine,
	outboxRepo *outbox.Repository,
	auditRepo *audit.Repository,
	logger *slog.Logger,
	policyProvider policy.Provider,
	cfg Config,
) *AllocationHandler {
	return &AllocationHandler{
		repo:           repo,
		resources:      resources,
		engine:         engine,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		logger:         logger,
		policy:         policyProvider,
		defaultWindow:  cfg.DefaultWindow,
		requireQuarter: cfg.RequireQuarter,
	}
}

type createAllocationRequest struct {
	ResourceID string   `json:"resource_id"`
	TaskID     string   `json:"task_id"`
	StartDate  string   `json:"start_date"`
	StartTime  string   `json:"start_time"`
	EndDate    string   `json:"end_date"`
	EndTime    string   `json:"end_time"`
	Note       string   `json:"note"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
}

type createAllocationResponse struct {
	AllocationID string `json:"allocation_id"`
}

type closeAllocationRequest struct {
	AllocationID string `json:"allocation_id"`
	EndDate      string `json:"end_date"`
	EndTime      string `json:"end_time"`
}

type allocationItem struct {
	AllocationID  string   `json:"allocation_id"`
	ResourceID    string   `json:"resource_id"`
	TaskID        string   `json:"task_id"`
	StartDate     string   `json:"start_date"`
	StartTime     string   `json:"start_time"`
	EndDate       string   `json:"end_date,omitempty"`
	EndTime       string   `json:"end_time,omitempty"`
	Open          bool     `json:"open"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	Note          string   `json:"note,omitempty"`
}

type conflictResponse struct {
	Conflicts []allocationItem `json:"conflicts"`
}

type slotItem struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *AllocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.TaskID = strings.TrimSpace(req.TaskID)
	if req.ResourceID == "" || req.TaskID == "" {
		http.Error(w, "resource_id and task_id required", http.StatusBadRequest)
		return
	}

	alloc := model.Allocation{
		ID:         uuid.NewString(),
		ResourceID: req.ResourceID,
		TaskID:     req.TaskID,
		StartDate:  strings.TrimSpace(req.StartDate),
		StartTime:  strings.TrimSpace(req.StartTime),
		EndDate:    strings.TrimSpace(req.EndDate),
		EndTime:    strings.TrimSpace(req.EndTime),
		Note:       strings.TrimSpace(req.Note),
		Lat:        req.Lat,
		Lon:        req.Lon,
	}

	if err := schedule.ValidateFields(alloc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.requireQuarter && !h.quarterAligned(alloc) {
		http.Error(w, "times must be aligned to quarter hours", http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	if _, err := h.resources.GetActive(ctx, alloc.ResourceID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown or retired resource", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to check resource", http.StatusInternalServerError)
		return
	}

	conflicts, err := h.engine.FindConflicts(ctx, alloc, "")
	if err != nil {
		http.Error(w, "conflict check failed", http.StatusInternalServerError)
		return
	}
	if len(conflicts) > 0 {
		h.writeConflicts(w, http.StatusConflict, conflicts)
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.Create(ctx, tx, &alloc)
	if err != nil {
		if storage.IsConflict(err) {
			// Lost the race against a concurrent create; the exclusion
			// constraint caught what FindConflicts could not see yet.
			http.Error(w, "allocation overlaps an existing one", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create allocation", http.StatusInternalServerError)
		return
	}

	if err := h.auditRepo.Insert(ctx, tx, audit.Entry{
		Actor:        actorFrom(r),
		Action:       audit.ActionCreated,
		AllocationID: id,
		Detail: map[string]any{
			"resource_id": alloc.ResourceID,
			"task_id":     alloc.TaskID,
			"start":       alloc.StartDate + " " + alloc.StartTime,
		},
	}); err != nil {
		http.Error(w, "failed to write audit entry", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(allocationEventPayload(id, alloc))
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "allocation",
		AggregateID:   id,
		EventType:     "allocation.allocation.created.v1",
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	h.autoCloseDay(ctx, r, alloc.ResourceID, alloc.StartDate)

	writeJSON(w, http.StatusCreated, createAllocationResponse{AllocationID: id})
}

func (h *AllocationHandler) CloseAllocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req closeAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AllocationID = strings.TrimSpace(req.AllocationID)
	req.EndDate = strings.TrimSpace(req.EndDate)
	req.EndTime = strings.TrimSpace(req.EndTime)
	if req.AllocationID == "" || req.EndDate == "" || req.EndTime == "" {
		http.Error(w, "allocation_id, end_date and end_time required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	alloc, err := h.repo.GetForUpdate(ctx, tx, req.AllocationID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "allocation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load allocation", http.StatusInternalServerError)
		return
	}
	if !alloc.IsOpen() {
		http.Error(w, "allocation already closed", http.StatusConflict)
		return
	}

	alloc.EndDate = req.EndDate
	alloc.EndTime = req.EndTime
	if err := schedule.ValidateFields(alloc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.requireQuarter && !schedule.QuarterHourAligned(alloc.EndTime) {
		http.Error(w, "times must be aligned to quarter hours", http.StatusUnprocessableEntity)
		return
	}

	conflicts, err := h.engine.FindConflicts(ctx, alloc, alloc.ID)
	if err != nil {
		http.Error(w, "conflict check failed", http.StatusInternalServerError)
		return
	}
	if len(conflicts) > 0 {
		h.writeConflicts(w, http.StatusConflict, conflicts)
		return
	}

	if err := h.repo.Close(ctx, tx, alloc.ID, alloc.EndDate, alloc.EndTime); err != nil {
		http.Error(w, "failed to close allocation", http.StatusInternalServerError)
		return
	}

	if err := h.auditRepo.Insert(ctx, tx, audit.Entry{
		Actor:        actorFrom(r),
		Action:       audit.ActionClosed,
		AllocationID: alloc.ID,
		Detail: map[string]any{
			"end": alloc.EndDate + " " + alloc.EndTime,
		},
	}); err != nil {
		http.Error(w, "failed to write audit entry", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(allocationEventPayload(alloc.ID, alloc))
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "allocation",
		AggregateID:   alloc.ID,
		EventType:     "allocation.allocation.closed.v1",
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toItem(alloc))
}

func (h *AllocationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		http.Error(w, "resource_id required", http.StatusBadRequest)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	var allocs []model.Allocation
	var err error
	if date != "" {
		allocs, err = h.repo.FindByResourceAndDate(r.Context(), resourceID, date)
	} else {
		allocs, err = h.repo.ListByResource(r.Context(), resourceID, limit)
	}
	if err != nil {
		http.Error(w, "failed to list allocations", http.StatusInternalServerError)
		return
	}

	items := make([]allocationItem, 0, len(allocs))
	for _, a := range allocs {
		items = append(items, toItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

// Conflicts runs the overlap check for a candidate without persisting
// anything, so a client can warn before submitting.
func (h *AllocationHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	candidate := model.Allocation{
		ResourceID: strings.TrimSpace(req.ResourceID),
		StartDate:  strings.TrimSpace(req.StartDate),
		StartTime:  strings.TrimSpace(req.StartTime),
		EndDate:    strings.TrimSpace(req.EndDate),
		EndTime:    strings.TrimSpace(req.EndTime),
	}
	if err := schedule.ValidateFields(candidate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	excludeID := strings.TrimSpace(r.URL.Query().Get("exclude_id"))
	conflicts, err := h.engine.FindConflicts(r.Context(), candidate, excludeID)
	if err != nil {
		http.Error(w, "conflict check failed", http.StatusInternalServerError)
		return
	}
	h.writeConflicts(w, http.StatusOK, conflicts)
}

func (h *AllocationHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if resourceID == "" || date == "" {
		http.Error(w, "resource_id and date required", http.StatusBadRequest)
		return
	}

	durationMins := 60
	if raw := strings.TrimSpace(r.URL.Query().Get("duration_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 16*60 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		durationMins = n
	}

	win := h.defaultWindow
	siteID := strings.TrimSpace(r.URL.Query().Get("site_id"))
	if h.policy != nil {
		if policyWin, err := h.policy.WorkingWindow(r.Context(), siteID); err == nil {
			win = policyWin
		} else {
			h.logger.Warn("working window fetch failed, using default", "err", err)
		}
	}

	slots, err := h.engine.SuggestSlots(r.Context(), resourceID, date, durationMins, win)
	if err != nil {
		http.Error(w, "failed to suggest slots", http.StatusInternalServerError)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{Start: s.Start, End: s.End})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AllocationHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allocationID := strings.TrimSpace(r.URL.Query().Get("allocation_id"))
	if allocationID == "" {
		http.Error(w, "allocation_id required", http.StatusBadRequest)
		return
	}

	entries, err := h.auditRepo.ListByAllocation(r.Context(), allocationID, 50)
	if err != nil {
		http.Error(w, "failed to list audit entries", http.StatusInternalServerError)
		return
	}

	type auditItem struct {
		Actor     string         `json:"actor"`
		Action    string         `json:"action"`
		Detail    map[string]any `json:"detail,omitempty"`
		CreatedAt string         `json:"created_at"`
	}
	items := make([]auditItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, auditItem{
			Actor:     e.Actor,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// autoCloseDay runs the open-shift pass after a successful create. It is best
// effort: a failure here leaves yesterday's shift open but never fails the
// create that triggered it. Every auto-closed allocation gets an audit row and
// an outbox event of its own.
func (h *AllocationHandler) autoCloseDay(ctx context.Context, r *http.Request, resourceID, date string) {
	recorder := &closeRecorder{inner: h.repo}
	eng := schedule.NewEngine(recorder)
	if err := eng.CloseOpenShifts(ctx, resourceID, date); err != nil {
		h.logger.Error("auto-close failed", "err", err, "resource_id", resourceID, "date", date)
	}
	if len(recorder.closed) == 0 {
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.logger.Error("auto-close bookkeeping failed", "err", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, closed := range recorder.closed {
		if err := h.auditRepo.Insert(ctx, tx, audit.Entry{
			Actor:        actorFrom(r),
			Action:       audit.ActionAutoClosed,
			AllocationID: closed.ID,
			Detail: map[string]any{
				"end": closed.EndDate + " " + closed.EndTime,
			},
		}); err != nil {
			h.logger.Error("auto-close audit failed", "err", err, "allocation_id", closed.ID)
			return
		}
		payload, err := json.Marshal(allocationEventPayload(closed.ID, closed))
		if err != nil {
			h.logger.Error("auto-close event payload failed", "err", err, "allocation_id", closed.ID)
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "allocation",
			AggregateID:   closed.ID,
			EventType:     "allocation.allocation.autoclosed.v1",
			Payload:       payload,
		}); err != nil {
			h.logger.Error("auto-close outbox failed", "err", err, "allocation_id", closed.ID)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("auto-close bookkeeping commit failed", "err", err)
	}
}

// closeRecorder wraps the repository so the auto-close pass can report which
// allocations it actually closed.
type closeRecorder struct {
	inner  *storage.AllocationRepository
	closed []model.Allocation
}

func (c *closeRecorder) FindByResourceAndDateRange(ctx context.Context, resourceID, dateFrom, dateTo string) ([]model.Allocation, error) {
	return c.inner.FindByResourceAndDateRange(ctx, resourceID, dateFrom, dateTo)
}

func (c *closeRecorder) FindByResourceAndDate(ctx context.Context, resourceID, date string) ([]model.Allocation, error) {
	return c.inner.FindByResourceAndDate(ctx, resourceID, date)
}

func (c *closeRecorder) Save(ctx context.Context, alloc *model.Allocation) error {
	if err := c.inner.Save(ctx, alloc); err != nil {
		return err
	}
	c.closed = append(c.closed, *alloc)
	return nil
}

func (h *AllocationHandler) quarterAligned(alloc model.Allocation) bool {
	if !schedule.QuarterHourAligned(alloc.StartTime) {
		return false
	}
	if alloc.EndTime != "" && !schedule.QuarterHourAligned(alloc.EndTime) {
		return false
	}
	return true
}

func (h *AllocationHandler) writeConflicts(w http.ResponseWriter, status int, conflicts []model.Allocation) {
	items := make([]allocationItem, 0, len(conflicts))
	for _, c := range conflicts {
		items = append(items, toItem(c))
	}
	writeJSON(w, status, conflictResponse{Conflicts: items})
}

func allocationEventPayload(id string, alloc model.Allocation) map[string]any {
	payload := map[string]any{
		"allocation_id": id,
		"resource_id":   alloc.ResourceID,
		"task_id":       alloc.TaskID,
		"start_date":    alloc.StartDate,
		"start_time":    alloc.StartTime,
		"end_date":      alloc.EndDate,
		"end_time":      alloc.EndTime,
	}
	if hours, ok := alloc.DurationHours(); ok {
		payload["duration_hours"] = hours
	}
	return payload
}

func toItem(a model.Allocation) allocationItem {
	item := allocationItem{
		AllocationID: a.ID,
		ResourceID:   a.ResourceID,
		TaskID:       a.TaskID,
		StartDate:    a.StartDate,
		StartTime:    a.StartTime,
		EndDate:      a.EndDate,
		EndTime:      a.EndTime,
		Open:         a.IsOpen(),
		Note:         a.Note,
	}
	if hours, ok := a.DurationHours(); ok {
		item.DurationHours = &hours
	}
	return item
}

func actorFrom(r *http.Request) string {
	if sub := strings.TrimSpace(r.Header.Get("X-User-Id")); sub != "" {
		return sub
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
