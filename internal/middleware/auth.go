package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/store"
)

const SessionCookieName = "taskhome_session"

// SessionToken extracts the session token from the session cookie or, failing
// that, an "Authorization: Bearer" header.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth validates the session and populates the request's auth.Identity.
// The caller must still be a member of the session's household.
func RequireAuth(sessions *store.SessionStore, households *store.HouseholdStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessions.GetByToken(token)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load session")
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			member, err := households.GetMember(sess.HouseholdID, sess.UserID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load membership")
				return
			}
			if member == nil {
				writeError(w, http.StatusUnauthorized, "not a member of this household")
				return
			}

			user, err := users.GetByID(sess.UserID)
			if err != nil || user == nil {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}

			id := auth.Identity{
				UserID:      sess.UserID,
				Username:    user.Username,
				HouseholdID: sess.HouseholdID,
				Role:        member.Role,
				SessionID:   sess.ID,
			}
			recordIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
