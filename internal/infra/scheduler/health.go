package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Health is the scheduler's health snapshot, mirroring what operators need
// to judge the pipeline: population counts, today's outcomes, the last
// successful delivery, and the loop status.
type Health struct {
	TotalRecipients  int               `json:"total_recipients"`
	ActiveRecipients int               `json:"active_recipients"`
	SentToday        int               `json:"digests_sent_today"`
	ErrorsToday      int               `json:"errors_today"`
	LastRun          *time.Time        `json:"last_run,omitempty"`
	Status           string            `json:"scheduler_status"`
	Breakers         map[string]string `json:"breakers,omitempty"`
}

// Health assembles the current snapshot. Failures while reading the store
// degrade to zero counts with status "error" instead of failing the probe.
func (s *Scheduler) Health(ctx context.Context) Health {
	status := "stopped"
	if s.Running() {
		status = "running"
	}

	h := Health{Status: status}
	if s.breakers != nil {
		h.Breakers = s.breakers.States()
	}

	total, active, err := s.recipients.Counts(ctx)
	if err != nil {
		s.logger.Warn("health: recipient counts unavailable",
			slog.Any("error", err))
		h.Status = "error"
		return h
	}
	h.TotalRecipients = total
	h.ActiveRecipients = active

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	stats, err := s.history.StatsSince(ctx, midnight)
	if err != nil {
		s.logger.Warn("health: history stats unavailable",
			slog.Any("error", err))
		h.Status = "error"
		return h
	}
	h.SentToday = stats.Sent
	h.ErrorsToday = stats.Failed

	lastSent, err := s.history.LastSentAt(ctx)
	if err == nil {
		h.LastRun = lastSent
	}
	return h
}

// HealthServer provides HTTP endpoints for probes and the scheduler health
// snapshot:
//   - /health: liveness probe, always 200
//   - /health/ready: readiness probe, 200 when ready, 503 otherwise
//   - /health/status: full Health snapshot as JSON
//
// The server supports graceful shutdown via context cancellation.
type HealthServer struct {
	addr      string
	logger    *slog.Logger
	isReady   *atomic.Bool
	scheduler *Scheduler
	server    *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthServer creates a health server bound to addr. The scheduler may
// be nil in tests; /health/status then returns 503.
func NewHealthServer(addr string, logger *slog.Logger, sched *Scheduler) *HealthServer {
	isReady := &atomic.Bool{}
	isReady.Store(false)

	return &HealthServer{
		addr:      addr,
		logger:    logger,
		isReady:   isReady,
		scheduler: sched,
	}
}

// SetReady flips the readiness probe. Call with true once startup wiring is
// complete.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
}

// Start runs the server until the context is cancelled. It returns
// http.ErrServerClosed on graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	mux.HandleFunc("/health/status", h.handleStatus)

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed
	case err := <-errChan:
		return err
	}
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.isReady.Load() {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
}

func (h *HealthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, h.scheduler.Health(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
