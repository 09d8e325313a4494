package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/middleware"
	"github.com/dukerupert/taskhome/internal/model"
	"github.com/dukerupert/taskhome/internal/store"
)

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore
	secureCookies  bool
	logger         *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		householdStore: hs,
		sessionStore:   ss,
		secureCookies:  secureCookies,
		logger:         logger,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	Token       string      `json:"token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
	HouseholdID int64       `json:"household_id"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates an account together with its own household, seeded with
// the default locations, and signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	reg, err := h.householdStore.Register(req.Username, req.Name, req.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		h.logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	user, household, sess := reg.User, reg.Household, reg.Session

	h.logger.Info("user registered", "user_id", user.ID, "household_id", household.ID)
	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:       sess.Token,
		ExpiresAt:   sess.ExpiresAt,
		User:        user,
		HouseholdID: household.ID,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.userStore.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	households, err := h.householdStore.ListForUser(user.ID)
	if err != nil {
		h.logger.Error("login households", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if len(households) == 0 {
		writeError(w, http.StatusForbidden, "user has no household")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, households[0].ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:       sess.Token,
		ExpiresAt:   sess.ExpiresAt,
		User:        user,
		HouseholdID: sess.HouseholdID,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if sess, err := h.sessionStore.GetByToken(token); err == nil && sess != nil {
			if err := h.sessionStore.Delete(sess.ID); err != nil {
				h.logger.Error("delete session", "error", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ListHouseholds(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	households, err := h.householdStore.ListForUser(id.UserID)
	if err != nil {
		h.logger.Error("list households", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list households")
		return
	}
	if households == nil {
		households = []model.Household{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"households": households,
		"current":    id.HouseholdID,
	})
}

// SwitchHousehold points the caller's session at another household they
// belong to.
func (h *AuthHandler) SwitchHousehold(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		HouseholdID int64 `json:"household_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.HouseholdID == 0 {
		writeError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	member, err := h.householdStore.GetMember(req.HouseholdID, id.UserID)
	if err != nil {
		h.logger.Error("switch household membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	if err := h.sessionStore.UpdateHouseholdID(id.SessionID, req.HouseholdID); err != nil {
		h.logger.Error("switch household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"household_id": req.HouseholdID, "role": member.Role})
}
