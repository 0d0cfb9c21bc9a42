package handlers

import (
	"log/slog"

	"github.com/edgard/sketchbot/internal/config"
	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/portrayal"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Directory *database.Directory
	// Portrayal is nil until the bot identity is known; only the
	// portrayal handler needs it.
	Portrayal *portrayal.Command
}
