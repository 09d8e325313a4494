package store

import (
	"testing"

	"github.com/dukerupert/taskhome/internal/database"
	"github.com/dukerupert/taskhome/internal/model"
)

func setupLocationTestDB(t *testing.T) (*LocationStore, *model.Household) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("alice", "Alice", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := NewHouseholdStore(db).Create("Home", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewLocationStore(db), h
}

func TestLocationCRUD(t *testing.T) {
	ls, h := setupLocationTestDB(t)

	// Create
	loc, err := ls.Create(h.ID, "alice", "Garage", "garage")
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if loc.Name != "Garage" || loc.User != "alice" || loc.HouseholdID != h.ID {
		t.Errorf("location = %+v", loc)
	}

	// Get
	got, err := ls.GetByID(loc.ID)
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if got.Name != "Garage" {
		t.Errorf("got name = %q, want %q", got.Name, "Garage")
	}

	// Update
	updated, err := ls.Update(loc.ID, "Garage/Workshop", "tools")
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if updated.Name != "Garage/Workshop" || updated.Icon != "tools" {
		t.Errorf("updated = %+v", updated)
	}

	// Delete
	if err := ls.Delete(loc.ID); err != nil {
		t.Fatalf("delete location: %v", err)
	}
	got, err = ls.GetByID(loc.ID)
	if err != nil {
		t.Fatalf("get deleted location: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted location")
	}
}

func TestLocationInsertionOrder(t *testing.T) {
	ls, h := setupLocationTestDB(t)

	for _, name := range []string{"Kitchen", "Bathroom", "Bedroom"} {
		if _, err := ls.Create(h.ID, "alice", name, ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	locs, err := ls.ListByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Kitchen", "Bathroom", "Bedroom"}
	if len(locs) != len(want) {
		t.Fatalf("expected %d locations, got %d", len(want), len(locs))
	}
	for i, name := range want {
		if locs[i].Name != name {
			t.Errorf("locs[%d] = %q, want %q", i, locs[i].Name, name)
		}
	}
}

func TestLocationReorder(t *testing.T) {
	ls, h := setupLocationTestDB(t)

	a, _ := ls.Create(h.ID, "alice", "A", "")
	b, _ := ls.Create(h.ID, "alice", "B", "")
	c, _ := ls.Create(h.ID, "alice", "C", "")

	if err := ls.Reorder(h.ID, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	locs, _ := ls.ListByHousehold(h.ID)
	got := []string{locs[0].Name, locs[1].Name, locs[2].Name}
	if got[0] != "C" || got[1] != "A" || got[2] != "B" {
		t.Errorf("order = %v, want [C A B]", got)
	}
}

func TestLocationGetByIDNotFound(t *testing.T) {
	ls, _ := setupLocationTestDB(t)

	got, err := ls.GetByID(9999)
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent location")
	}
}
