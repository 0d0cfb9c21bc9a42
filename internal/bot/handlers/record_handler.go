package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewRecordHandler returns the default handler, which stores every message
// that no command handler claimed.
func NewRecordHandler(deps HandlerDeps) bot.HandlerFunc {
	return recordHandler{deps}.Handle
}

type recordHandler struct {
	deps HandlerDeps
}

func (h recordHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		h.deps.Logger.DebugContext(ctx, "Ignoring update without message or sender", "handler", "record", "update_id", update.ID)
		return
	}
	recordMessage(ctx, h.deps, msg)
}
