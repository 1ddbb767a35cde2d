package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stepagg/internal/adapter"
	"stepagg/internal/config"
	"stepagg/internal/domain"
	"stepagg/internal/eventlog"
)

// Runner replays a single event log through a fresh adapter
type Runner struct {
	config     *config.Config
	logger     *slog.Logger
	registered map[string]bool
}

// NewRunner creates a new Runner. A nil logger means slog.Default at replay time.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{config: cfg, logger: logger}
}

// SetRegistered sets the external ids registered by earlier replays. Results
// of those tests are reported even when the test did not pass in the log.
// It must not be called while logs are replayed.
func (r *Runner) SetRegistered(ids map[string]bool) {
	r.registered = ids
}

// Run decodes the log at path and feeds it to the step engine
func (r *Runner) Run(ctx context.Context, path string, workerID int) (result domain.ReplayResult) {
	start := time.Now()
	result.LogPath = path
	defer func() { result.Duration = time.Since(start) }()

	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("log", path, "worker", workerID)

	log, err := eventlog.ReadFile(path, r.config.Flags.Strict)
	if err != nil {
		result.Error = err
		return result
	}
	for _, warning := range log.Warnings {
		logger.Warn("event skipped", "reason", warning)
		result.Warnings = append(result.Warnings, path+": "+warning)
	}

	a := adapter.New(r.config.Reporter, path,
		adapter.WithLogger(logger), adapter.WithRegistered(r.registered))
	if err := eventlog.Dispatch(ctx, log.Events, a); err != nil {
		result.Error = fmt.Errorf("replay %s: %w", path, err)
		return result
	}
	result.Reports = a.Complete()

	logger.Debug("log replayed", "events", len(log.Events), "reports", len(result.Reports))
	return result
}
