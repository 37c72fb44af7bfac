package roster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

func testService(t *testing.T) (*Service, *bus.Bus) {
	t.Helper()
	db, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	b := bus.New()
	return NewService(db, b, "r1", zap.NewNop()), b
}

func TestAddListRemove(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	c, err := s.Add(ctx, Input{Name: "Ana", Phone: "5511987654321"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.ID == "" {
		t.Error("Add() did not assign an id")
	}
	if c.VisitCount != 1 {
		t.Errorf("VisitCount = %d, want default 1", c.VisitCount)
	}

	customers, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(customers) != 1 || customers[0].Name != "Ana" {
		t.Errorf("List() = %+v", customers)
	}

	if err := s.Remove(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() = %v, want ErrNotFound", err)
	}
}

func TestAddRequiresNameOrPhone(t *testing.T) {
	s, _ := testService(t)
	if _, err := s.Add(context.Background(), Input{}); err == nil {
		t.Error("Add() expected error for empty input")
	}
}

func TestUpdate(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	c, err := s.Add(ctx, Input{Name: "Ana", Phone: "111"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(ctx, c.ID, Input{Name: "Ana Silva", Phone: "222", CurrentTable: "7"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Ana Silva" || updated.Phone != "222" || updated.CurrentTable != "7" {
		t.Errorf("Update() = %+v", updated)
	}

	if _, err := s.Update(ctx, "missing", Input{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
}

func TestMutationsPublishChangeEvents(t *testing.T) {
	s, b := testService(t)
	ch, unsub := b.Subscribe("roster.", 10)
	defer unsub()

	c, err := s.Add(context.Background(), Input{Name: "Ana", Phone: "111"})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindRosterChanged {
			t.Errorf("kind = %q, want %q", evt.Kind, bus.KindRosterChanged)
		}
		payload := evt.Payload.(map[string]string)
		if payload["op"] != "created" || payload["customer_id"] != c.ID {
			t.Errorf("payload = %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for roster.changed")
	}
}

func TestAllowedContactsSkipsPhonelessEntries(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, Input{Name: "Com fone", Phone: "5511987654321"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, Input{Name: "Sem fone"}); err != nil {
		t.Fatal(err)
	}

	allowed, err := s.AllowedContacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(allowed) != 1 || allowed[0].Name != "Com fone" {
		t.Errorf("AllowedContacts() = %+v, want only the phoned entry", allowed)
	}
}
