package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/household"
	"github.com/dukerupert/taskhome/internal/icon"
	"github.com/dukerupert/taskhome/internal/model"
	"github.com/dukerupert/taskhome/internal/store"
	"github.com/dukerupert/taskhome/internal/websocket"
)

type LocationHandler struct {
	householdStore *store.HouseholdStore
	locationStore  *store.LocationStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewLocationHandler(hs *store.HouseholdStore, ls *store.LocationStore, hub *websocket.Hub, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{householdStore: hs, locationStore: ls, hub: hub, logger: logger}
}

type locationRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	HouseholdID *int64 `json:"household_id"`
}

// ownedLocation loads the location named by the {id} path value. Locations
// of other households are reported as not found.
func ownedLocation(ls *store.LocationStore, w http.ResponseWriter, r *http.Request) (*model.TaskLocation, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	loc, err := ls.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return nil, false
	}
	if loc == nil || loc.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "location not found")
		return nil, false
	}
	return loc, true
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationStore.ListByHousehold(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list locations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.TaskLocation{}
	}
	writeJSON(w, http.StatusOK, locations)
}

// Create appends a location to the caller's household. The new location is
// first registered in the loaded household graph, so a body household_id
// naming another household is rejected there.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.Icon == "" {
		req.Icon = icon.Suggest(req.Name)
	}

	householdID := auth.HouseholdID(r.Context())
	graph, ok := loadGraph(h.householdStore, h.logger, w, householdID)
	if !ok {
		return
	}
	candidate := household.NewTaskLocation(0, auth.Username(r.Context()), req.Name, householdID)
	if req.HouseholdID != nil {
		candidate.HouseholdID = *req.HouseholdID
	}
	if err := graph.Root.AddTaskLocation(candidate); err != nil {
		writeDomainError(w, err)
		return
	}

	loc, err := h.locationStore.Create(householdID, candidate.User, candidate.Name, req.Icon)
	if err != nil {
		h.logger.Error("create location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	broadcast(h.hub, householdID, websocket.NewMessage("location", "created", loc.ID, nil))
	writeJSON(w, http.StatusCreated, loc)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := ownedLocation(h.locationStore, w, r)
	if !ok {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Icon == "" {
		req.Icon = existing.Icon
	}

	loc, err := h.locationStore.Update(existing.ID, req.Name, req.Icon)
	if err != nil {
		h.logger.Error("update location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update location")
		return
	}

	broadcast(h.hub, loc.HouseholdID, websocket.NewMessage("location", "updated", loc.ID, nil))
	writeJSON(w, http.StatusOK, loc)
}

// Delete removes a location along with its tasks.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := ownedLocation(h.locationStore, w, r)
	if !ok {
		return
	}

	if err := h.locationStore.Delete(existing.ID); err != nil {
		h.logger.Error("delete location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("location", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LocationHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	householdID := auth.HouseholdID(r.Context())
	if err := h.locationStore.Reorder(householdID, req.IDs); err != nil {
		h.logger.Error("reorder locations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}

	broadcast(h.hub, householdID, websocket.NewMessage("location", "reordered", 0, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
