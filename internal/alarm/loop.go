package alarm

import (
	"context"
	"log/slog"

	"github.com/memorizer/remindd/internal/scheduler"
)

// Run consumes delivered alarms one at a time until ctx ends or alarms is
// closed. Maintenance alarms trigger a resync; everything else goes to the
// fire handler.
func Run(ctx context.Context, alarms <-chan scheduler.Alarm, h *Handler, r *Restorer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case a, ok := <-alarms:
			if !ok {
				return nil
			}
			if a.Key.Kind == KindMaintenance {
				if _, err := r.Resync(ctx); err != nil {
					logger.Error("alarm: nightly resync failed", slog.String("error", err.Error()))
				}
				continue
			}
			out := h.Handle(ctx, a)
			logger.Info("alarm: fired",
				slog.String("key", a.Key.String()),
				slog.String("reason", out.Reason),
				slog.Bool("displayed", out.Displayed),
				slog.Bool("rearmed", out.Rearmed))
		}
	}
}
