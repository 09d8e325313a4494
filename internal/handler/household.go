package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/health"
	"github.com/dukerupert/taskhome/internal/model"
	"github.com/dukerupert/taskhome/internal/store"
	"github.com/dukerupert/taskhome/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	taskStore      *store.TaskStore
	hub            *websocket.Hub
	logger         *slog.Logger
	now            func() time.Time
}

func NewHouseholdHandler(hs *store.HouseholdStore, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		householdStore: hs,
		taskStore:      ts,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

type taskView struct {
	model.Task
	Health *health.Status `json:"health,omitempty"`
}

type locationView struct {
	model.TaskLocation
	Tasks []taskView `json:"tasks"`
}

type householdView struct {
	model.Household
	User      string         `json:"user"`
	Locations []locationView `json:"locations"`
}

// taskHealth evaluates a stored task. A task whose frequency no longer parses
// is reported without health rather than failing the whole response.
func taskHealth(t *model.Task, last time.Time, now time.Time) *health.Status {
	f, err := frequencyOf(t)
	if err != nil {
		return nil
	}
	since := t.CreatedAt
	if !last.IsZero() {
		since = last
	}
	s := health.Evaluate(f, since, t.DueAt, now)
	return &s
}

// Get returns the caller's household with every location and task in order,
// each task annotated with its current health.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	graph, ok := loadGraph(h.householdStore, h.logger, w, householdID)
	if !ok {
		return
	}

	last, err := h.taskStore.LastCompletionsByHousehold(householdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}

	locByID := make(map[int64]model.TaskLocation, len(graph.Locations))
	for _, l := range graph.Locations {
		locByID[l.ID] = l
	}
	taskByID := make(map[int64]model.Task, len(graph.Tasks))
	for _, t := range graph.Tasks {
		taskByID[t.ID] = t
	}

	now := h.now()
	view := householdView{Household: graph.Household, User: graph.Root.User, Locations: []locationView{}}
	for _, l := range graph.Root.Locations() {
		lv := locationView{TaskLocation: locByID[l.ID], Tasks: []taskView{}}
		for _, t := range l.Tasks() {
			task := taskByID[t.ID]
			lv.Tasks = append(lv.Tasks, taskView{Task: task, Health: taskHealth(&task, last[t.ID], now)})
		}
		view.Locations = append(view.Locations, lv)
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	hh, err := h.householdStore.Update(householdID, req.Name)
	if err != nil {
		h.logger.Error("update household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	broadcast(h.hub, householdID, websocket.NewMessage("household", "updated", householdID, nil))
	writeJSON(w, http.StatusOK, hh)
}
