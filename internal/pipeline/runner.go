package pipeline

import (
	"context"
	"log/slog"
)

// BacklogSummary reports what one backlog drain did.
type BacklogSummary struct {
	// Processed holds the per-intake results in execution order.
	Processed []Result

	// Failed maps intake IDs to the error that stopped them.
	Failed map[string]error
}

// Runner drains the authorized backlog through a Coordinator.
type Runner struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(c *Coordinator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{coordinator: c, logger: logger}
}

// RunBacklog executes every authorized intake in priority order, one at a
// time. A failing intake is recorded and skipped; it never aborts the
// backlog. Rescue intakes opened during this pass are picked up by the
// next pass, not this one, so a persistently failing report cannot wedge
// the loop.
func (r *Runner) RunBacklog(ctx context.Context) (BacklogSummary, error) {
	summary := BacklogSummary{
		Processed: make([]Result, 0),
		Failed:    make(map[string]error),
	}

	pending := r.coordinator.store.PendingByPriority()
	r.logger.Info("draining backlog", "pending", len(pending))

	for _, intake := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, err := r.coordinator.Execute(ctx, intake.IntakeID)
		if err != nil {
			r.logger.Error("intake execution failed",
				"intakeID", intake.IntakeID,
				"error", err,
			)
			summary.Failed[intake.IntakeID] = err
			continue
		}
		summary.Processed = append(summary.Processed, res)
	}

	r.logger.Info("backlog drained",
		"processed", len(summary.Processed),
		"failed", len(summary.Failed),
	)
	return summary, nil
}
