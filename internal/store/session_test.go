package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/taskhome/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore, *HouseholdStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db), NewHouseholdStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h, _ := hs.Create("Home", u.ID)

	sess, err := ss.Create(u.ID, h.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := uuid.Parse(sess.Token); err != nil {
		t.Errorf("token %q is not a uuid: %v", sess.Token, err)
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}
	if sess.HouseholdID != h.ID {
		t.Errorf("household_id = %d, want %d", sess.HouseholdID, h.ID)
	}
	if !sess.ExpiresAt.After(time.Now().Add(SessionTTL - time.Hour)) {
		t.Errorf("expires_at = %v, want about %v from now", sess.ExpiresAt, SessionTTL)
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h, _ := hs.Create("Home", u.ID)
	created, _ := ss.Create(u.ID, h.ID)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss, _, _ := setupSessionTestDB(t)

	for _, token := range []string{"nonexistent", uuid.NewString()} {
		sess, err := ss.GetByToken(token)
		if err != nil {
			t.Fatalf("get by token %q: %v", token, err)
		}
		if sess != nil {
			t.Errorf("expected nil for token %q", token)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h, _ := hs.Create("Home", u.ID)
	created, _ := ss.Create(u.ID, h.ID)
	ss.db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, time.Now().UTC().Add(-time.Minute), created.ID)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestSessionDelete(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h, _ := hs.Create("Home", u.ID)
	created, _ := ss.Create(u.ID, h.ID)

	if err := ss.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h, _ := hs.Create("Home", u.ID)
	ss.Create(u.ID, h.ID)
	ss.Create(u.ID, h.ID)

	if err := ss.DeleteByUserID(u.ID); err != nil {
		t.Fatalf("delete by user id: %v", err)
	}

	var count int
	ss.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE user_id = ?`, u.ID).Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 sessions, got %d", count)
	}
}

func TestSessionUpdateHouseholdID(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t)

	u, _ := us.Create("alice", "Alice", "pw")
	h1, _ := hs.Create("Home", u.ID)
	h2, _ := hs.Create("Cabin", u.ID)
	created, _ := ss.Create(u.ID, h1.ID)

	if err := ss.UpdateHouseholdID(created.ID, h2.ID); err != nil {
		t.Fatalf("update household id: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if sess.HouseholdID != h2.ID {
		t.Errorf("household_id = %d, want %d", sess.HouseholdID, h2.ID)
	}
}
