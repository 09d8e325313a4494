package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskhome/internal/config"
	"github.com/dukerupert/taskhome/internal/handler"
	"github.com/dukerupert/taskhome/internal/middleware"
	"github.com/dukerupert/taskhome/internal/store"
	ws "github.com/dukerupert/taskhome/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	locationH      *handler.LocationHandler
	taskH          *handler.TaskHandler
	userStore      *store.UserStore
	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	trustProxy     bool
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	locationStore := store.NewLocationStore(db)
	taskStore := store.NewTaskStore(db)

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, householdStore, sessionStore, cfg.SecureCookies(), logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(householdStore, taskStore, hub, logger.With("component", "household")),
		locationH:      handler.NewLocationHandler(householdStore, locationStore, hub, logger.With("component", "location")),
		taskH:          handler.NewTaskHandler(householdStore, locationStore, taskStore, hub, logger.With("component", "task")),
		userStore:      userStore,
		sessionStore:   sessionStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(cfg.LoginPerMinute, time.Minute),
		trustProxy:     cfg.TrustProxy,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"), s.trustProxy)(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"status":"` + status + `"}`))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, s.trustProxy)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/households", s.authH.ListHouseholds)
	mux.HandleFunc("POST /api/households/switch", s.authH.SwitchHousehold)

	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.Handle("PUT /api/household", middleware.RequireAdmin(http.HandlerFunc(s.householdH.Update)))

	mux.HandleFunc("GET /api/locations", s.locationH.List)
	mux.HandleFunc("POST /api/locations", s.locationH.Create)
	mux.HandleFunc("PUT /api/locations/sort", s.locationH.UpdateSortOrder)
	mux.HandleFunc("PUT /api/locations/{id}", s.locationH.Update)
	mux.HandleFunc("DELETE /api/locations/{id}", s.locationH.Delete)

	mux.HandleFunc("GET /api/locations/{id}/tasks", s.taskH.ListByLocation)
	mux.HandleFunc("POST /api/locations/{id}/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}/completions/{completion_id}", s.taskH.UndoComplete)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
