package generations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/db"
	"github.com/ziadkadry99/umlgen/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &Generation{
		SessionID:      "s1",
		ProjectContext: "A library system",
		Instruction:    "Class Diagram",
		Markup:         "@startuml\nclass Book\n@enduml",
		Provider:       "google",
		Model:          "gemini-2.5-flash",
		Duration:       1500 * time.Millisecond,
	}
	if err := s.Create(ctx, g); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Markup != g.Markup || got.Instruction != "Class Diagram" || got.Model != "gemini-2.5-flash" {
		t.Errorf("Get = %+v", got)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, sess := range []string{"a", "b", "a", "a"} {
		g := &Generation{
			SessionID:      sess,
			ProjectContext: "ctx",
			Instruction:    string(rune('0' + i)),
			Markup:         "@startuml\n@enduml",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Create(ctx, g); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].Instruction != "3" {
		t.Errorf("List newest first: got %d rows, first %q", len(all), all[0].Instruction)
	}

	onlyA, _ := s.List(ctx, ListOptions{SessionID: "a", Limit: 2})
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(onlyA))
	}
	for _, g := range onlyA {
		if g.SessionID != "a" {
			t.Errorf("unexpected session %q", g.SessionID)
		}
	}

	if err := s.Delete(ctx, all[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rest, _ := s.List(ctx, ListOptions{})
	if len(rest) != 3 {
		t.Errorf("expected 3 rows after delete, got %d", len(rest))
	}
}

func TestRecorderSkipsFailures(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s, "google", "gemini-2.5-flash", logging.Discard())
	ctx := context.Background()

	r.TurnCompleted(ctx, conversation.TurnResult{
		SessionID:   "s1",
		Instruction: "Class Diagram",
		Err:         apperr.ErrAuthFailure,
	})
	r.TurnCompleted(ctx, conversation.TurnResult{
		SessionID:      "s1",
		ProjectContext: "A library system",
		Instruction:    "Class Diagram",
		Markup:         "@startuml\nclass Book\n@enduml",
		Duration:       time.Second,
	})

	rows, err := s.List(ctx, ListOptions{SessionID: "s1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 archived generation, got %d", len(rows))
	}
	if rows[0].Provider != "google" || rows[0].Model != "gemini-2.5-flash" {
		t.Errorf("labels = %q/%q", rows[0].Provider, rows[0].Model)
	}
}
