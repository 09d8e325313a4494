package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/taskhome/internal/auth"
	"github.com/dukerupert/taskhome/internal/database"
	"github.com/dukerupert/taskhome/internal/model"
	"github.com/dukerupert/taskhome/internal/store"
	"github.com/dukerupert/taskhome/internal/websocket"
)

type fixture struct {
	db         *sql.DB
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	locations  *store.LocationStore
	tasks      *store.TaskStore
	hub        *websocket.Hub
	logger     *slog.Logger

	user      *model.User
	household *model.Household
	session   *model.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		db:         db,
		users:      store.NewUserStore(db),
		households: store.NewHouseholdStore(db),
		sessions:   store.NewSessionStore(db),
		locations:  store.NewLocationStore(db),
		tasks:      store.NewTaskStore(db),
		hub:        websocket.NewHub(logger),
		logger:     logger,
	}

	f.user, err = f.users.Create("alice", "Alice", "hunter22")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f.household, err = f.households.Create("Alice's Household", f.user.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if err := f.households.SeedDefaults(f.household.ID, f.user.Username); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	f.session, err = f.sessions.Create(f.user.ID, f.household.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return f
}

func (f *fixture) identity() auth.Identity {
	return auth.Identity{
		UserID:      f.user.ID,
		Username:    f.user.Username,
		HouseholdID: f.household.ID,
		Role:        model.RoleAdmin,
		SessionID:   f.session.ID,
	}
}

// request builds an authenticated request as alice. pathValues fill the
// {name} wildcards the router would normally set.
func request(t *testing.T, id auth.Identity, method, target string, body any, pathValues ...string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req.WithContext(auth.WithIdentity(context.Background(), id))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) kitchen(t *testing.T) model.TaskLocation {
	t.Helper()
	locs, err := f.locations.ListByHousehold(f.household.ID)
	if err != nil || len(locs) == 0 {
		t.Fatalf("list locations: %v (%d)", err, len(locs))
	}
	if locs[0].Name != "Kitchen" {
		t.Fatalf("first location = %q, want Kitchen", locs[0].Name)
	}
	return locs[0]
}

// otherHousehold creates bob and his household, returning one of his
// locations.
func (f *fixture) otherHousehold(t *testing.T) (*model.Household, *model.TaskLocation) {
	t.Helper()
	bob, err := f.users.Create("bob", "Bob", "password1")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	hh, err := f.households.Create("Bob's Household", bob.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	loc, err := f.locations.Create(hh.ID, "bob", "Garage", "")
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return hh, loc
}
