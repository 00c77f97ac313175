package storage

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// newTestStore opens an in-memory sqlite database instead of Postgres so the
// round-trip logic in SaveCall/LoadCall can be exercised without a live
// Postgres instance; Open itself (the Postgres wiring) is left untested here
// since it is a one-line call into gorm.io/driver/postgres.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&callRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return &Store{db: db}
}

func TestSaveAndLoadCallRoundTrips(t *testing.T) {
	store := newTestStore(t)

	record := &orchestrator.CallRecord{
		CallID:    "call-1",
		StartedAt: 100,
		EndedAt:   160,
		Turns: []orchestrator.Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
		SampleRate: 16000,
		Voice:      "F1",
		Language:   "en",
	}

	if err := store.SaveCall(context.Background(), record); err != nil {
		t.Fatalf("SaveCall failed: %v", err)
	}

	got, err := store.LoadCall(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("LoadCall failed: %v", err)
	}

	if got.CallID != record.CallID || got.StartedAt != record.StartedAt || got.EndedAt != record.EndedAt {
		t.Fatalf("loaded record does not match saved record: %#v vs %#v", got, record)
	}
	if len(got.Turns) != 2 || got.Turns[0].Content != "hello" || got.Turns[1].Content != "hi there" {
		t.Fatalf("loaded turns do not round-trip correctly: %#v", got.Turns)
	}
}

func TestSaveCallUpsertsOnCallID(t *testing.T) {
	store := newTestStore(t)

	first := &orchestrator.CallRecord{CallID: "call-2", Turns: []orchestrator.Message{{Role: "user", Content: "v1"}}}
	if err := store.SaveCall(context.Background(), first); err != nil {
		t.Fatalf("first SaveCall failed: %v", err)
	}

	second := &orchestrator.CallRecord{CallID: "call-2", Turns: []orchestrator.Message{{Role: "user", Content: "v2"}}}
	if err := store.SaveCall(context.Background(), second); err != nil {
		t.Fatalf("second SaveCall failed: %v", err)
	}

	got, err := store.LoadCall(context.Background(), "call-2")
	if err != nil {
		t.Fatalf("LoadCall failed: %v", err)
	}
	if len(got.Turns) != 1 || got.Turns[0].Content != "v2" {
		t.Fatalf("expected the second save to overwrite the row, got %#v", got.Turns)
	}
}

func TestLoadCallMissingReturnsError(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.LoadCall(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected an error loading a call id that was never saved")
	}
}
