package portrayal

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/edgard/sketchbot/internal/database"
)

// FetchQuery selects candidate messages. Zero times leave that bound open,
// an empty StreamID reads every stream and an empty UserIDs reads everyone.
type FetchQuery struct {
	UserIDs  []string
	Start    time.Time
	End      time.Time
	StreamID string
	Limit    int
}

// FetchMessages returns non-command messages matching q. With a positive
// Limit only the most recent Limit messages are returned.
func FetchMessages(ctx context.Context, store MessageStore, q FetchQuery) ([]*database.Message, error) {
	filter := database.MessageFilter{
		UserIDs:         slices.Clone(q.UserIDs),
		StreamID:        q.StreamID,
		Limit:           q.Limit,
		ExcludeCommands: true,
	}
	if !q.Start.IsZero() {
		filter.After = database.UnixSeconds(q.Start)
	}
	if !q.End.IsZero() {
		filter.Before = database.UnixSeconds(q.End)
	}

	msgs, err := store.FindMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}
