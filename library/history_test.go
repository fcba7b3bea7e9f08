package library

import (
	"path/filepath"
	"testing"
)

func tempHistory(t *testing.T) (*HistoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h, path
}

func TestHistoryRecordAndQuery(t *testing.T) {
	h, _ := tempHistory(t)

	if err := h.Record("alice", "Dune", EventLent); err != nil {
		t.Fatalf("record lent: %v", err)
	}
	if err := h.Record("alice", "Dune", EventReturned); err != nil {
		t.Fatalf("record returned: %v", err)
	}
	if err := h.Record("bob", "Emma", EventLent); err != nil {
		t.Fatalf("record other user: %v", err)
	}

	events, err := h.ForUser("alice")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events for alice, got %d", len(events))
	}
	if events[0].Action != EventLent || events[1].Action != EventReturned {
		t.Fatalf("events out of order: %v then %v", events[0].Action, events[1].Action)
	}
	if events[0].ID == events[1].ID {
		t.Fatal("event ids must be unique")
	}

	none, err := h.ForUser("nobody")
	if err != nil {
		t.Fatalf("query empty: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("want no events, got %d", len(none))
	}
}

func TestHistorySurvivesReopen(t *testing.T) {
	h, path := tempHistory(t)
	if err := h.Record("alice", "Dune", EventLent); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	h2, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()

	events, err := h2.ForUser("alice")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Dune" {
		t.Fatalf("archived event lost across reopen: %v", events)
	}
}

func TestCirculationArchivesToHistory(t *testing.T) {
	h, _ := tempHistory(t)

	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)
	d := NewDirectory()
	newAccount(t, d, "alice", "pw1")
	s := NewSession()
	if _, err := d.Login(s, "alice", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	circ := NewCirculation(c, h, nil)
	if err := circ.Lend(s, "Dune"); err != nil {
		t.Fatalf("lend: %v", err)
	}
	if _, err := circ.Return(s, "Dune", 0, ""); err != nil {
		t.Fatalf("return: %v", err)
	}

	events, err := h.ForUser("alice")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 archived events, got %d", len(events))
	}
}
