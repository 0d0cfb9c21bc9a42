package portrayal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edgard/sketchbot/internal/database"
)

// Target is the person being profiled and where their messages are read.
// An empty StreamID means every stream.
type Target struct {
	UserID     string
	PersonName string
	Nickname   string
	StreamID   string
}

// mentionPrefix starts the mention markup "@<display:id>".
const mentionPrefix = "@<"

// ResolveStream maps a group id or a private-chat user id to a stream id.
// It returns "" when nothing matches.
func ResolveStream(ctx context.Context, streams StreamDirectory, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || streams == nil {
		return "", nil
	}

	s, err := streams.StreamByGroupID(ctx, id)
	if err == nil {
		return s.StreamID, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve stream by group %s: %w", id, err)
	}

	s, err = streams.StreamByUserID(ctx, id)
	if err == nil {
		return s.StreamID, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve stream by user %s: %w", id, err)
	}
	return "", nil
}

// MentionUserID returns the user id of the first mention among segments.
// A mention segment looks like "@<display:id>"; the id is the last
// colon-separated field. Segments without an id are skipped.
func MentionUserID(segments []string) (string, bool) {
	for _, seg := range segments {
		if !strings.HasPrefix(seg, "@") {
			continue
		}
		parts := strings.Split(strings.Trim(seg, "@<>"), ":")
		if len(parts) < 2 {
			continue
		}
		if id := strings.TrimSpace(parts[len(parts)-1]); id != "" {
			return id, true
		}
	}
	return "", false
}

// ResolveTarget picks the target user. A name argument that is not mention
// markup wins, then the first mention, then the invoker. Targeting the bot
// itself falls back to the invoker. An unknown name yields an empty UserID.
func ResolveTarget(ctx context.Context, persons PersonDirectory, inv *Invocation, botUserID string) (Target, error) {
	name := strings.TrimSpace(inv.Args.Name)
	if name != "" && !strings.HasPrefix(name, mentionPrefix) {
		p, err := persons.PersonByName(ctx, name)
		if errors.Is(err, database.ErrNotFound) {
			return Target{PersonName: name}, nil
		}
		if err != nil {
			return Target{PersonName: name}, fmt.Errorf("failed to look up person %q: %w", name, err)
		}
		if botUserID != "" && p.UserID == botUserID {
			return invokerTarget(ctx, persons, inv)
		}
		return Target{UserID: p.UserID, PersonName: name, Nickname: p.Nickname}, nil
	}

	userID, ok := MentionUserID(inv.Segments)
	if !ok || (botUserID != "" && userID == botUserID) {
		return invokerTarget(ctx, persons, inv)
	}
	return personTarget(ctx, persons, userID, "")
}

// TargetForUser builds the target for a known user id, filling names from
// the person directory.
func TargetForUser(ctx context.Context, persons PersonDirectory, userID string) (Target, error) {
	return personTarget(ctx, persons, userID, "")
}

func invokerTarget(ctx context.Context, persons PersonDirectory, inv *Invocation) (Target, error) {
	return personTarget(ctx, persons, inv.UserID, inv.Nickname)
}

func personTarget(ctx context.Context, persons PersonDirectory, userID, nickname string) (Target, error) {
	t := Target{UserID: userID, Nickname: nickname}
	if userID == "" {
		return t, nil
	}

	p, err := persons.PersonByUserID(ctx, userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return t, fmt.Errorf("failed to look up person %s: %w", userID, err)
	default:
		if t.Nickname == "" {
			t.Nickname = p.Nickname
		}
		t.PersonName = p.PersonName
	}

	if t.Nickname == "" {
		t.Nickname = userID
	}
	if t.PersonName == "" {
		t.PersonName = t.Nickname
	}
	return t, nil
}
