package receipt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/config"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

func testSpooler(t *testing.T, cfg config.Printer) (*Spooler, *store.DB) {
	t.Helper()
	db, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = filepath.Join(t.TempDir(), "spool")
	}
	return NewSpooler(db, bus.New(), cfg, "Cantina", zap.NewNop()), db
}

func TestPrintQueuesJob(t *testing.T) {
	s, db := testSpooler(t, config.Printer{})

	jobID, err := s.Print(sampleOrder())
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if jobID == "" {
		t.Fatal("Print() returned empty job id")
	}

	pending, err := db.PendingPrintJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending jobs, want 1", len(pending))
	}
	if !strings.Contains(pending[0].Document, "MESA 12") {
		t.Error("queued document is not the rendered receipt")
	}
}

func TestProcessPendingSpoolOnly(t *testing.T) {
	spoolDir := filepath.Join(t.TempDir(), "spool")
	s, db := testSpooler(t, config.Printer{SpoolDir: spoolDir})

	if _, err := s.Print(sampleOrder()); err != nil {
		t.Fatal(err)
	}
	s.processPending(context.Background())

	pending, err := db.PendingPrintJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending jobs after drain, want 0", len(pending))
	}

	// The spool's single slot holds the last dispatched document.
	data, err := os.ReadFile(filepath.Join(spoolDir, currentDocument))
	if err != nil {
		t.Fatalf("read spool document: %v", err)
	}
	if !strings.Contains(string(data), "Pedido #ped-42") {
		t.Error("spool document is not the rendered receipt")
	}
}

func TestLastWriteWins(t *testing.T) {
	spoolDir := filepath.Join(t.TempDir(), "spool")
	s, _ := testSpooler(t, config.Printer{SpoolDir: spoolDir})

	first := sampleOrder()
	second := sampleOrder()
	second.ID = "ped-43"

	if _, err := s.Print(first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Print(second); err != nil {
		t.Fatal(err)
	}
	s.processPending(context.Background())

	data, err := os.ReadFile(filepath.Join(spoolDir, currentDocument))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Pedido #ped-43") {
		t.Error("spool slot should hold the last dispatched receipt")
	}
}

func TestFailedCommandMarksJobFailed(t *testing.T) {
	s, db := testSpooler(t, config.Printer{Command: "/bin/false"})

	jobID, err := s.Print(sampleOrder())
	if err != nil {
		t.Fatal(err)
	}
	s.processPending(context.Background())

	var status, errMsg string
	err = db.QueryRow(`SELECT status, error_message FROM print_jobs WHERE id = ?`, jobID).Scan(&status, &errMsg)
	if err != nil {
		t.Fatal(err)
	}
	if status != "failed" {
		t.Errorf("status = %q, want failed", status)
	}
	if errMsg == "" {
		t.Error("error_message is empty")
	}
}
