// Package scheduler runs the recurring digest batch: one cron-triggered job
// that orchestrates a digest for every active recipient.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/observability/metrics"
	"dev-digest/internal/observability/slo"
	"dev-digest/internal/repository"
	"dev-digest/internal/resilience/circuitbreaker"
	"dev-digest/internal/usecase/digest"
)

// DigestRunner is the orchestration entrypoint the scheduler drives.
// Implemented by *digest.Service.
type DigestRunner interface {
	Run(ctx context.Context, recipientID int64, kind entity.DigestKind) (digest.RunStatus, error)
}

// cronEngine abstracts the cron library so tests can fire jobs directly.
type cronEngine interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

// Scheduler owns the background execution loop. Start and Stop are
// idempotent; job execution is exclusive, a firing that overlaps a running
// batch is skipped and counted.
type Scheduler struct {
	cfg        *Config
	runner     DigestRunner
	recipients repository.RecipientRepository
	history    repository.HistoryRepository
	breakers   *circuitbreaker.Registry
	metrics    *Metrics
	logger     *slog.Logger

	// newEngine builds the cron engine; replaced in tests.
	newEngine func(loc *time.Location) cronEngine

	mu      sync.Mutex
	engine  cronEngine
	started bool

	batchRunning atomic.Bool
}

// New creates a scheduler. The breaker registry is optional and only used
// for health reporting.
func New(
	cfg *Config,
	runner DigestRunner,
	recipients repository.RecipientRepository,
	history repository.HistoryRepository,
	breakers *circuitbreaker.Registry,
	m *Metrics,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		runner:     runner,
		recipients: recipients,
		history:    history,
		breakers:   breakers,
		metrics:    m,
		logger:     slog.Default().With(slog.String("component", "scheduler")),
		newEngine: func(loc *time.Location) cronEngine {
			return cron.New(cron.WithLocation(loc))
		},
	}
}

// Start registers the recurring job and starts the cron loop. Calling Start
// on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Info("scheduler already running, ignoring start")
		return nil
	}

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.logger.Warn("invalid timezone, using UTC",
			slog.String("timezone", s.cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	engine := s.newEngine(loc)
	if _, err := engine.AddFunc(s.cfg.CronSchedule, s.fireBatch); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	engine.Start()

	s.engine = engine
	s.started = true
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone))
	return nil
}

// Stop halts the cron loop and waits briefly for a running batch's cron
// callback to return. Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	stopCtx := s.engine.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("timed out waiting for running jobs to finish")
	}

	s.started = false
	s.engine = nil
	s.logger.Info("scheduler stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// fireBatch is the cron callback. Overlap exclusion lives here: if the
// previous batch is still running the firing is dropped.
func (s *Scheduler) fireBatch() {
	if !s.batchRunning.CompareAndSwap(false, true) {
		s.logger.Warn("previous batch still running, skipping this firing")
		s.metrics.RecordBatchRun("skipped_overlap")
		metrics.RecordBatchOverlapSkipped()
		return
	}
	defer s.batchRunning.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BatchTimeout)
	defer cancel()

	if err := s.RunBatch(ctx); err != nil {
		s.logger.Error("batch failed",
			slog.Any("error", err))
	}
}

// RunBatch orchestrates one digest for every active recipient with bounded
// concurrency. Per-recipient failures are logged and never abort the batch;
// the batch itself fails only when the recipient list cannot be loaded or
// the context expires between recipients.
func (s *Scheduler) RunBatch(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("digest batch started")

	recipients, err := s.recipients.ListActive(ctx)
	if err != nil {
		s.metrics.RecordBatchRun("failure")
		return fmt.Errorf("list active recipients: %w", err)
	}

	var sent, failed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, recipient := range recipients {
		if ctx.Err() != nil {
			// Graceful interruption between recipients.
			break
		}
		g.Go(func() error {
			status, err := s.runner.Run(gctx, recipient.ID, entity.KindDaily)
			switch status {
			case digest.RunSent:
				sent.Add(1)
			case digest.RunFailed:
				failed.Add(1)
			case digest.RunSkipped:
				skipped.Add(1)
			}
			if err != nil {
				s.logger.Warn("recipient run failed, continuing batch",
					slog.Int64("recipient_id", recipient.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(start)
	interrupted := ctx.Err() != nil

	s.metrics.RecordBatchDuration(duration)
	s.metrics.RecordRecipientsProcessed(len(recipients))
	metrics.RecordBatchRun(duration)
	slo.UpdateBatchDuration(duration.Seconds())
	s.updateSuccessRatio(sent.Load(), failed.Load())
	s.publishRecipientCounts(ctx)

	if interrupted {
		s.metrics.RecordBatchRun("failure")
		s.logger.Warn("digest batch interrupted",
			slog.Int("recipients", len(recipients)),
			slog.Duration("duration", duration))
		return fmt.Errorf("batch interrupted: %w", ctx.Err())
	}

	s.metrics.RecordBatchRun("success")
	s.metrics.RecordLastSuccess()

	s.logger.Info("digest batch completed",
		slog.Int("recipients", len(recipients)),
		slog.Int64("sent", sent.Load()),
		slog.Int64("failed", failed.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Duration("duration", duration))
	return nil
}

func (s *Scheduler) updateSuccessRatio(sent, failed int64) {
	attempts := sent + failed
	ratio := 1.0
	if attempts > 0 {
		ratio = float64(sent) / float64(attempts)
	}
	slo.UpdateDeliverySuccess(ratio)
}

func (s *Scheduler) publishRecipientCounts(ctx context.Context) {
	total, active, err := s.recipients.Counts(ctx)
	if err != nil {
		s.logger.Warn("failed to load recipient counts",
			slog.Any("error", err))
		return
	}
	metrics.RecordRecipientCounts(total, active)
}
