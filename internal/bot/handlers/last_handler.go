package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/portrayal"
)

// NewLastHandler returns a handler for /sketch_last, which resends the most
// recent stored portrayal of a user (the invoker by default).
func NewLastHandler(deps HandlerDeps) bot.HandlerFunc {
	return lastHandler{deps}.Handle
}

type lastHandler struct {
	deps HandlerDeps
}

func (h lastHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "last")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.ErrorContext(ctx, "Last handler called with nil Message or From", "update_id", update.ID)
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	if fields := strings.Fields(msg.Text); len(fields) > 1 {
		userID = fields[1]
	}

	replier := newChatReplier(h.deps, b, msg, StreamFromChat(msg.Chat).StreamID)
	text, err := h.render(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load portrayal", "error", err, "target_user_id", userID)
		text = h.deps.Config.Messages.GeneralError
	}

	if err := replier.SendForward(ctx, []portrayal.ForwardNode{{Text: text}}); err != nil {
		log.ErrorContext(ctx, "Failed to send stored portrayal", "error", err)
	}
}

// render returns the message for the latest portrayal of userID.
func (h lastHandler) render(ctx context.Context, userID string) (string, error) {
	p, err := h.deps.Store.GetLatestPortrayal(ctx, database.PersonID(database.PlatformTelegram, userID))
	if errors.Is(err, database.ErrNotFound) {
		return h.deps.Config.Messages.HistoryEmpty, nil
	}
	if err != nil {
		return "", err
	}

	name, err := portrayal.PersonName(ctx, h.deps.Directory, userID, userID)
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to resolve person name", "error", err, "user_id", userID)
	}

	loc, err := h.deps.Config.Portrayal.Location()
	if err != nil {
		return "", err
	}
	header := fmt.Sprintf(h.deps.Config.Messages.HistoryHeaderFmt, name, p.CreatedAt.In(loc).Format("2006-01-02 15:04"))
	return header + p.Content, nil
}
