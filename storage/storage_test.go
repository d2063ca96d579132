package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestAddAndList(t *testing.T) {
	s := openStore(t)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := Record{
		Topic:     "msh/US/2/json/LongFast/!12345678",
		FromID:    "!12345678",
		ToID:      "^all",
		Channel:   "LongFast",
		Payload:   `{"from":305419896,"channel":0,"type":"sendtext","payload":"hi"}`,
		Status:    StatusSent,
		CreatedAt: at,
	}
	second := Record{
		Topic:  "msh/US/2/json/LongFast/!12345678",
		FromID: "!12345678",
		ToID:   "!87654321",
		Status: StatusFailed,
		Error:  "mqtt: not connected",
	}

	id1, err := s.Add(first)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	id2, err := s.Add(second)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids not increasing: %d, %d", id1, id2)
	}

	recs, err := s.List(0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	// newest first
	got := recs[0]
	if got.ID != id2 || got.Status != StatusFailed || got.Error != second.Error || got.ToID != second.ToID {
		t.Errorf("unexpected newest record: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}

	got = recs[1]
	if got.ID != id1 || got.Payload != first.Payload || got.Channel != "LongFast" || got.Error != "" {
		t.Errorf("unexpected oldest record: %+v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
}

func TestListLimit(t *testing.T) {
	s := openStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.Add(Record{Topic: "t", Status: StatusSent}); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}

	recs, err := s.List(3)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].ID != 5 {
		t.Errorf("first record id = %d, want 5", recs[0].ID)
	}
}

func TestListEmpty(t *testing.T) {
	s := openStore(t)

	recs, err := s.List(10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestAddInvalid(t *testing.T) {
	s := openStore(t)

	if _, err := s.Add(Record{Status: StatusSent}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("missing topic: err = %v, want ErrInvalidRecord", err)
	}
	if _, err := s.Add(Record{Topic: "t"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("missing status: err = %v, want ErrInvalidRecord", err)
	}
}
