package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/health"
	"github.com/dukerupert/taskhome/internal/household"
	"github.com/dukerupert/taskhome/internal/icon"
	"github.com/dukerupert/taskhome/internal/model"
	"github.com/dukerupert/taskhome/internal/store"
	"github.com/dukerupert/taskhome/internal/websocket"
)

type TaskHandler struct {
	householdStore *store.HouseholdStore
	locationStore  *store.LocationStore
	taskStore      *store.TaskStore
	hub            *websocket.Hub
	logger         *slog.Logger
	now            func() time.Time
}

func NewTaskHandler(hs *store.HouseholdStore, ls *store.LocationStore, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		householdStore: hs,
		locationStore:  ls,
		taskStore:      ts,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

type taskRequest struct {
	Title             string     `json:"title"`
	Details           string     `json:"details"`
	Icon              string     `json:"icon"`
	LocationID        *int64     `json:"location_id"`
	FrequencyHours    int        `json:"frequency_hours"`
	Interval          string     `json:"interval"`
	TimesPerInterval  int        `json:"times_per_interval"`
	SkipIntervals     int        `json:"skip_intervals"`
	ResetOnCompletion bool       `json:"reset_on_completion"`
	DueAt             *time.Time `json:"due_at"`
}

func (req taskRequest) spec() health.Spec {
	return health.Spec{
		FrequencyHours:    req.FrequencyHours,
		Interval:          req.Interval,
		TimesPerInterval:  req.TimesPerInterval,
		SkipIntervals:     req.SkipIntervals,
		ResetOnCompletion: req.ResetOnCompletion,
	}
}

func frequencyOf(t *model.Task) (health.Frequency, error) {
	return health.Parse(health.Spec{
		FrequencyHours:    t.FrequencyHours,
		Interval:          t.Interval,
		TimesPerInterval:  t.TimesPerInterval,
		SkipIntervals:     t.SkipIntervals,
		ResetOnCompletion: t.ResetOnCompletion,
	})
}

// decodeTask reads and validates a task body. The returned frequency is the
// parsed schedule.
func decodeTask(w http.ResponseWriter, r *http.Request) (taskRequest, health.Frequency, bool) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return req, nil, false
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return req, nil, false
	}
	f, err := health.Parse(req.spec())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, nil, false
	}
	if req.TimesPerInterval <= 0 {
		req.TimesPerInterval = 1
	}
	if req.SkipIntervals < 0 {
		writeError(w, http.StatusBadRequest, "skip_intervals must not be negative")
		return req, nil, false
	}
	return req, f, true
}

func (req taskRequest) input(dueAt time.Time) store.TaskInput {
	return store.TaskInput{
		Title:             req.Title,
		Details:           req.Details,
		Icon:              req.Icon,
		FrequencyHours:    req.FrequencyHours,
		Interval:          strings.ToLower(strings.TrimSpace(req.Interval)),
		TimesPerInterval:  req.TimesPerInterval,
		SkipIntervals:     req.SkipIntervals,
		ResetOnCompletion: req.ResetOnCompletion,
		DueAt:             dueAt,
	}
}

// ownedTask loads the task named by the {id} path value together with its
// location. Tasks of other households are reported as not found.
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request) (*model.Task, *model.TaskLocation, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, nil, false
	}

	task, err := h.taskStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, nil, false
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, nil, false
	}

	loc, err := h.locationStore.GetByID(task.LocationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return nil, nil, false
	}
	if loc == nil || loc.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, nil, false
	}
	return task, loc, true
}

func (h *TaskHandler) ListByLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := ownedLocation(h.locationStore, w, r)
	if !ok {
		return
	}

	tasks, err := h.taskStore.ListByLocation(loc.ID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Create adds a task to the location in the path. The task is first
// registered with that location's node in the loaded household graph, so a
// body location_id naming a different location is rejected there.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	loc, ok := ownedLocation(h.locationStore, w, r)
	if !ok {
		return
	}

	req, freq, ok := decodeTask(w, r)
	if !ok {
		return
	}

	graph, ok := loadGraph(h.householdStore, h.logger, w, loc.HouseholdID)
	if !ok {
		return
	}
	target := graph.Location(loc.ID)
	if target == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	candidate := &household.Task{Title: req.Title, LocationID: loc.ID}
	if req.LocationID != nil {
		candidate.LocationID = *req.LocationID
	}
	if err := target.AddTask(candidate); err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Icon == "" {
		req.Icon = icon.Suggest(req.Title)
	}

	now := h.now()
	dueAt := freq.NextDue(now, now)
	if req.DueAt != nil {
		dueAt = *req.DueAt
	}

	task, err := h.taskStore.Create(loc.ID, req.input(dueAt))
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("task", "created", task.ID, map[string]any{"location_id": loc.ID}))
	writeJSON(w, http.StatusCreated, task)
}

// Update edits a task. A location_id in the body moves the task to another
// location of the same household.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, loc, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	req, _, ok := decodeTask(w, r)
	if !ok {
		return
	}

	dueAt := existing.DueAt
	if req.DueAt != nil {
		dueAt = *req.DueAt
	}

	locationID := existing.LocationID
	if req.LocationID != nil && *req.LocationID != existing.LocationID {
		dest, err := h.locationStore.GetByID(*req.LocationID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get location")
			return
		}
		if dest == nil || dest.HouseholdID != loc.HouseholdID {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}
		locationID = dest.ID
	}

	task, err := h.taskStore.Update(existing.ID, locationID, req.input(dueAt))
	if errors.Is(err, store.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("task", "updated", task.ID, map[string]any{"location_id": task.LocationID}))
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, loc, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.taskStore.Delete(existing.ID); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("task", "deleted", existing.ID, map[string]any{"location_id": loc.ID}))
	w.WriteHeader(http.StatusNoContent)
}

// Complete records a completion by the caller and advances the due date
// according to the task's frequency.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task, loc, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var req struct {
		CompletedAt *time.Time `json:"completed_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	at := h.now()
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}

	freq, err := frequencyOf(task)
	if err != nil {
		h.logger.Error("task frequency", "error", err, "task_id", task.ID)
		writeError(w, http.StatusConflict, "task has an invalid frequency")
		return
	}

	userID := auth.UserID(r.Context())
	dueAt := freq.NextDue(task.DueAt, at)
	completion, err := h.taskStore.Complete(task.ID, &userID, at, dueAt)
	if errors.Is(err, store.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		h.logger.Error("complete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("task", "completed", task.ID, map[string]any{"location_id": loc.ID}))
	writeJSON(w, http.StatusCreated, map[string]any{
		"completion": completion,
		"due_at":     dueAt.UTC(),
	})
}

// UndoComplete deletes a completion. The task's due date is left as is.
func (h *TaskHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	task, loc, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	completionID, err := parseInt64Param(r, "completion_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid completion_id")
		return
	}

	completion, err := h.taskStore.GetCompletion(completionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get completion")
		return
	}
	if completion == nil || completion.TaskID != task.ID {
		writeError(w, http.StatusNotFound, "completion not found")
		return
	}

	if err := h.taskStore.DeleteCompletion(completionID); err != nil {
		h.logger.Error("undo completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to undo completion")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("task", "completion_undone", task.ID, map[string]any{"location_id": loc.ID}))
	w.WriteHeader(http.StatusNoContent)
}
