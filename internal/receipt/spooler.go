package receipt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/config"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

// currentDocument is the spool's single reusable output slot. Every dispatch
// overwrites it, so concurrent prints are last-write-wins; the job history
// in print_jobs keeps every rendered document.
const currentDocument = "current.html"

// Spooler owns the session-lifetime print handle: the spool directory is
// created lazily on the first print and reused until shutdown, never torn
// down in between. Printing is fire-and-forget; outcomes surface only as
// job status and log lines.
type Spooler struct {
	db             *store.DB
	bus            *bus.Bus
	logger         *zap.Logger
	restaurantName string
	spoolDir       string
	command        string

	mu      sync.Mutex
	created bool
	cancel  context.CancelFunc
}

// NewSpooler creates a print spooler from the printer configuration.
func NewSpooler(db *store.DB, b *bus.Bus, cfg config.Printer, restaurantName string, logger *zap.Logger) *Spooler {
	return &Spooler{
		db:             db,
		bus:            b,
		logger:         logger,
		restaurantName: restaurantName,
		spoolDir:       cfg.SpoolDir,
		command:        cfg.Command,
	}
}

// Start begins draining queued print jobs.
func (s *Spooler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the drain loop.
func (s *Spooler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Print formats the order and enqueues the result for dispatch. The returned
// job id lets callers correlate print.* events; no print outcome is reported
// here.
func (s *Spooler) Print(order *store.Order) (string, error) {
	doc := BuildDocument(order, s.restaurantName)
	html, err := RenderHTML(doc)
	if err != nil {
		return "", err
	}

	jobID := uuid.NewString()
	if err := s.db.QueuePrintJob(jobID, order.ID, html); err != nil {
		return "", fmt.Errorf("queue print job: %w", err)
	}

	s.bus.Publish(bus.Event{
		Kind:    bus.KindPrintQueued,
		Payload: map[string]string{"job_id": jobID, "order_id": order.ID},
	})
	s.logger.Info("receipt queued", zap.String("job_id", jobID), zap.String("order_id", order.ID))
	return jobID, nil
}

func (s *Spooler) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Spooler) processPending(ctx context.Context) {
	pending, err := s.db.PendingPrintJobs()
	if err != nil {
		s.logger.Error("failed to read print queue", zap.Error(err))
		return
	}

	for _, job := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.db.MarkPrintJobPrinting(job.ID); err != nil {
			s.logger.Error("failed to mark printing", zap.Error(err), zap.String("job_id", job.ID))
			continue
		}

		if err := s.dispatch(job.Document); err != nil {
			s.logger.Error("print dispatch failed", zap.Error(err), zap.String("job_id", job.ID))
			_ = s.db.MarkPrintJobFailed(job.ID, err.Error())
			s.bus.Publish(bus.Event{
				Kind:    bus.KindPrintFailed,
				Payload: map[string]string{"job_id": job.ID, "error": err.Error()},
			})
			continue
		}

		if err := s.db.MarkPrintJobPrinted(job.ID); err != nil {
			s.logger.Error("failed to mark printed", zap.Error(err), zap.String("job_id", job.ID))
		}
		s.logger.Info("receipt dispatched", zap.String("job_id", job.ID))
		s.bus.Publish(bus.Event{
			Kind:    bus.KindPrintDone,
			Payload: map[string]string{"job_id": job.ID},
		})
	}
}

// dispatch overwrites the spool's current document and hands it to the print
// command when one is configured.
func (s *Spooler) dispatch(document string) error {
	path, err := s.ensureSpool()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(document), 0600); err != nil {
		return fmt.Errorf("write spool document: %w", err)
	}

	if s.command == "" {
		// Spool-only installs: the document sits in the spool for pickup.
		return nil
	}

	parts := strings.Fields(s.command)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("print command: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ensureSpool lazily creates the spool directory on first use.
func (s *Spooler) ensureSpool() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		if err := os.MkdirAll(s.spoolDir, 0700); err != nil {
			return "", fmt.Errorf("create spool dir: %w", err)
		}
		s.created = true
	}
	return filepath.Join(s.spoolDir, currentDocument), nil
}
