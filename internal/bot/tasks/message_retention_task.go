package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/sketchbot/internal/database"
)

// newMessageRetentionTask deletes messages older than the configured
// retention window. A window of zero days keeps everything.
func newMessageRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", MessageRetentionTask)

	return func(ctx context.Context) error {
		days := deps.Config.Database.RetentionDays
		if days <= 0 {
			log.DebugContext(ctx, "Message retention disabled")
			return nil
		}

		cutoff := deps.now().Add(-time.Duration(days) * 24 * time.Hour)
		deleted, err := deps.Store.DeleteMessagesBefore(ctx, database.UnixSeconds(cutoff))
		if err != nil {
			log.ErrorContext(ctx, "Message retention failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("message retention failed: %w", err)
		}

		log.InfoContext(ctx, "Message retention completed", "deleted", deleted, "cutoff", cutoff)
		return nil
	}
}
