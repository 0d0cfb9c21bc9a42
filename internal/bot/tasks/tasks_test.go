package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/sketchbot/internal/bot/tasks"
	"github.com/edgard/sketchbot/internal/config"
	"github.com/edgard/sketchbot/internal/database"
)

func newDeps(t *testing.T, retentionDays int, now time.Time) (tasks.TaskDeps, database.Store) {
	t.Helper()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	cfg := &config.Config{}
	cfg.Database.RetentionDays = retentionDays
	return tasks.TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  store,
		Config: cfg,
		Now:    func() time.Time { return now },
	}, store
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t, 90, time.Now())
	registered := tasks.RegisterAllTasks(deps)
	assert.Len(t, registered, 2)
	assert.Contains(t, registered, tasks.SQLMaintenanceTask)
	assert.Contains(t, registered, tasks.MessageRetentionTask)
}

func TestMessageRetentionTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		days      int
		remaining int
	}{
		{name: "deletes old messages", days: 30, remaining: 1},
		{name: "disabled", days: 0, remaining: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps, store := newDeps(t, tt.days, now)
			ctx := context.Background()
			for _, age := range []time.Duration{40 * 24 * time.Hour, time.Hour} {
				require.NoError(t, store.SaveMessage(ctx, &database.Message{
					StreamID: "s", UserID: "u", ProcessedPlainText: "x",
					Time: database.UnixSeconds(now.Add(-age)),
				}))
			}

			require.NoError(t, tasks.RegisterAllTasks(deps)[tasks.MessageRetentionTask](ctx))

			msgs, err := store.FindMessages(ctx, database.MessageFilter{})
			require.NoError(t, err)
			assert.Len(t, msgs, tt.remaining)
		})
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t, 0, time.Now())
	assert.NoError(t, tasks.RegisterAllTasks(deps)[tasks.SQLMaintenanceTask](context.Background()))
}
