package portrayal

import (
	"slices"
	"sort"

	"github.com/edgard/sketchbot/internal/database"
)

// FilterWithContext selects the messages of targetUserID together with up to
// before preceding and after following messages around each of them.
// Overlapping windows merge. The result is ascending by time, holds at most
// limit messages and prefers the most recent windows when it has to drop some.
// A limit <= 0 yields no messages.
//
// The limit is checked before each message is scanned, so the marked set may
// briefly exceed it; the returned slice never does.
func FilterWithContext(messages []*database.Message, targetUserID string, before, after, limit int) []*database.Message {
	if len(messages) == 0 || limit <= 0 {
		return nil
	}
	before = max(before, 0)
	after = max(after, 0)

	sorted := slices.Clone(messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	if before == 0 && after == 0 {
		var own []*database.Message
		for _, m := range sorted {
			if m.UserID == targetUserID {
				own = append(own, m)
			}
		}
		if len(own) > limit {
			own = own[len(own)-limit:]
		}
		return own
	}

	n := len(sorted)
	included := make(map[int]struct{})
	for i := n - 1; i >= 0; i-- {
		if len(included) >= limit {
			break
		}
		if sorted[i].UserID != targetUserID {
			continue
		}
		for j := max(0, i-before); j <= min(n-1, i+after); j++ {
			included[j] = struct{}{}
		}
	}
	if len(included) == 0 {
		return nil
	}

	indices := make([]int, 0, len(included))
	for i := range included {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	if len(indices) > limit {
		indices = indices[len(indices)-limit:]
	}

	out := make([]*database.Message, 0, len(indices))
	for _, i := range indices {
		out = append(out, sorted[i])
	}
	return out
}
