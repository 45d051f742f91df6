package services_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/models"
	"github.com/tradepsych/coach-web-ui/internal/services"
)

func newTestDB(t *testing.T) services.BoltDB {
	t.Helper()
	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltDBState(t *testing.T) {
	db := newTestDB(t)

	if v, err := db.State(services.StateAccessToken); err != nil || v != "" {
		t.Fatalf("State() on empty db = (%q, %v), want (\"\", nil)", v, err)
	}

	if err := db.SetState(services.StateAccessToken, "tok-1"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if v, _ := db.State(services.StateAccessToken); v != "tok-1" {
		t.Errorf("State() = %q, want %q", v, "tok-1")
	}

	// Last write wins.
	if err := db.SetState(services.StateAccessToken, "tok-2"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if v, _ := db.State(services.StateAccessToken); v != "tok-2" {
		t.Errorf("State() after overwrite = %q, want %q", v, "tok-2")
	}

	if err := db.DeleteState(services.StateAccessToken); err != nil {
		t.Fatalf("DeleteState() error = %v", err)
	}
	if v, _ := db.State(services.StateAccessToken); v != "" {
		t.Errorf("State() after delete = %q, want empty", v)
	}

	// Deleting a missing key is a no-op.
	if err := db.DeleteState("never-set"); err != nil {
		t.Errorf("DeleteState() on missing key error = %v", err)
	}
}

func TestBoltDBTranscriptCache(t *testing.T) {
	db := newTestDB(t)

	if msgs, err := db.CachedMessages("s1"); err != nil || len(msgs) != 0 {
		t.Fatalf("CachedMessages() on empty db = (%v, %v), want (empty, nil)", msgs, err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	first := models.Message{ID: "m1", Role: models.RoleUser, Content: "hello", Timestamp: now}
	second := models.Message{ID: "m2", Role: models.RoleAssistant, CoachID: "c1", Content: "hi there", Timestamp: now}

	if err := db.CacheMessage("s1", first); err != nil {
		t.Fatalf("CacheMessage() error = %v", err)
	}
	if err := db.CacheMessage("s1", second); err != nil {
		t.Fatalf("CacheMessage() error = %v", err)
	}

	msgs, err := db.CachedMessages("s1")
	if err != nil {
		t.Fatalf("CachedMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(CachedMessages()) = %d, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("cached order = [%s %s], want [m1 m2]", msgs[0].ID, msgs[1].ID)
	}
	if msgs[1].Content != "hi there" {
		t.Errorf("cached content = %q, want %q", msgs[1].Content, "hi there")
	}

	// Replace swaps the whole transcript for the authoritative copy.
	replacement := []models.Message{
		{ID: "m3", Role: models.RoleUser, Content: "fresh", Timestamp: now},
	}
	if err := db.ReplaceCachedMessages("s1", replacement); err != nil {
		t.Fatalf("ReplaceCachedMessages() error = %v", err)
	}
	msgs, _ = db.CachedMessages("s1")
	if len(msgs) != 1 || msgs[0].ID != "m3" {
		t.Fatalf("CachedMessages() after replace = %v, want single m3", msgs)
	}

	// Transcripts are isolated per session.
	if other, _ := db.CachedMessages("s2"); len(other) != 0 {
		t.Errorf("CachedMessages(s2) = %v, want empty", other)
	}

	if err := db.DropCachedMessages("s1"); err != nil {
		t.Fatalf("DropCachedMessages() error = %v", err)
	}
	if msgs, _ := db.CachedMessages("s1"); len(msgs) != 0 {
		t.Errorf("CachedMessages() after drop = %v, want empty", msgs)
	}

	// Dropping a missing transcript is a no-op.
	if err := db.DropCachedMessages("never-existed"); err != nil {
		t.Errorf("DropCachedMessages() on missing session error = %v", err)
	}
}

func TestProjectStore(t *testing.T) {
	db := newTestDB(t)
	projects := services.NewProjectStore(db)

	if id := projects.ActiveProject(); id != "" {
		t.Fatalf("ActiveProject() on empty db = %q, want empty", id)
	}

	if err := projects.SetActiveProject("proj-1"); err != nil {
		t.Fatalf("SetActiveProject() error = %v", err)
	}
	if id := projects.ActiveProject(); id != "proj-1" {
		t.Errorf("ActiveProject() = %q, want %q", id, "proj-1")
	}

	// Empty clears the selection.
	if err := projects.SetActiveProject(""); err != nil {
		t.Fatalf("SetActiveProject(\"\") error = %v", err)
	}
	if id := projects.ActiveProject(); id != "" {
		t.Errorf("ActiveProject() after clear = %q, want empty", id)
	}
}
