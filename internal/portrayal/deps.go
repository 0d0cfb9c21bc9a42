// Package portrayal builds an LLM personality profile of a chat member from
// their recent message history.
package portrayal

import (
	"context"
	"errors"

	"github.com/edgard/sketchbot/internal/database"
)

// MessageStore queries recorded messages.
type MessageStore interface {
	FindMessages(ctx context.Context, filter database.MessageFilter) ([]*database.Message, error)
}

// PersonDirectory resolves chat participants on the current platform.
// Lookups of unknown people return database.ErrNotFound.
type PersonDirectory interface {
	PersonByUserID(ctx context.Context, userID string) (*database.Person, error)
	PersonByName(ctx context.Context, name string) (*database.Person, error)
}

// StreamDirectory resolves chat identifiers to streams.
// Lookups of unknown streams return database.ErrNotFound.
type StreamDirectory interface {
	StreamByGroupID(ctx context.Context, groupID string) (*database.Stream, error)
	StreamByUserID(ctx context.Context, userID string) (*database.Stream, error)
}

// PortrayalStore keeps dispatched portrayals.
type PortrayalStore interface {
	SavePortrayal(ctx context.Context, p *database.Portrayal) error
}

// ForwardNode is one entry of a forwarded composite message.
type ForwardNode struct {
	UserID   string
	Nickname string
	Text     string
}

// Replier sends messages back to the chat the command came from.
type Replier interface {
	SendText(ctx context.Context, text string) error
	SendForward(ctx context.Context, nodes []ForwardNode) error
}

var (
	// ErrNoModelConfig means neither a model list nor the named group is configured.
	ErrNoModelConfig = errors.New("no model configuration")
	// ErrEmptyTemplate means the prompt template is blank.
	ErrEmptyTemplate = errors.New("prompt template is empty")
)
