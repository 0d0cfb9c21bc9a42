package portrayal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/edgard/sketchbot/internal/database"
)

const lineTimeLayout = "2006-01-02 15:04:05"

// NameCache maps user ids to display names for a single invocation.
type NameCache map[string]string

// Formatter renders messages as "[time] name: text" lines.
type Formatter struct {
	Persons  PersonDirectory
	Location *time.Location
	Log      *slog.Logger
}

// Prepare cleans and renders messages, newest first, until limit lines are
// collected, then returns them ascending by time. A limit <= 0 yields no
// lines, the same as FilterWithContext.
// Names come from names, falling back to the person directory; resolved
// names are added to names. It also reports how many lines belong to
// targetUserID and how many to everyone else.
func (f *Formatter) Prepare(ctx context.Context, messages []*database.Message, limit int, targetUserID string, names NameCache, maxLen int) (lines []string, targetCount, otherCount int, err error) {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	if names == nil {
		names = NameCache{}
	}
	if limit <= 0 {
		return nil, 0, 0, nil
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if len(lines) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, err
		}

		m := messages[i]
		text, ok := CleanText(m.ProcessedPlainText, maxLen)
		if !ok {
			continue
		}

		name, cached := names[m.UserID]
		if !cached {
			name = f.lookupName(ctx, m.UserID, m.UserNickname)
			names[m.UserID] = name
		}

		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Timestamp().In(loc).Format(lineTimeLayout), name, text))
		if targetUserID != "" && m.UserID == targetUserID {
			targetCount++
		} else {
			otherCount++
		}
	}

	slices.Reverse(lines)
	return lines, targetCount, otherCount, nil
}

func (f *Formatter) lookupName(ctx context.Context, userID, fallback string) string {
	name, err := PersonName(ctx, f.Persons, userID, fallback)
	if err != nil && f.Log != nil {
		f.Log.WarnContext(ctx, "Failed to resolve person name, using nickname", "user_id", userID, "error", err)
	}
	return name
}

// PersonName returns the display name of userID, or fallback when the person
// is unknown or has no name. A non-nil error still comes with a usable name.
func PersonName(ctx context.Context, persons PersonDirectory, userID, fallback string) (string, error) {
	if fallback == "" {
		fallback = userID
	}
	if persons == nil || userID == "" {
		return fallback, nil
	}

	p, err := persons.PersonByUserID(ctx, userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fallback, nil
	case err != nil:
		return fallback, fmt.Errorf("failed to look up person %s: %w", userID, err)
	case p.PersonName != "":
		return p.PersonName, nil
	default:
		return fallback, nil
	}
}
