package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/taskhome/internal/household"
	"github.com/dukerupert/taskhome/internal/store"
	"github.com/dukerupert/taskhome/internal/websocket"
)

func parseIDParam(r *http.Request) (int64, error) {
	return parseInt64Param(r, "id")
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func broadcast(hub *websocket.Hub, householdID int64, msg websocket.Message) {
	if hub != nil {
		hub.Broadcast(householdID, msg)
	}
}

// loadGraph loads a household's domain graph, writing the error response
// when it cannot.
func loadGraph(hs *store.HouseholdStore, logger *slog.Logger, w http.ResponseWriter, householdID int64) (*store.Graph, bool) {
	graph, err := hs.LoadGraph(householdID)
	if errors.Is(err, household.ErrInvariantViolation) {
		logger.Error("household graph inconsistent", "error", err, "household_id", householdID)
		writeError(w, http.StatusConflict, "household data is inconsistent")
		return nil, false
	}
	if err != nil {
		logger.Error("load household graph", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load household")
		return nil, false
	}
	if graph == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return nil, false
	}
	return graph, true
}

// writeDomainError maps a rejected guarded append to a response.
func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, household.ErrInvariantViolation) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
