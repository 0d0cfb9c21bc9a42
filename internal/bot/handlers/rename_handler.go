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
)

// NewRenameHandler creates a handler for /sketch_rename, which lets
// administrators change the display name used in portrayals.
func NewRenameHandler(deps HandlerDeps) bot.HandlerFunc {
	return renameHandler{deps}.Handle
}

type renameHandler struct {
	deps HandlerDeps
}

func (h renameHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rename")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Rename handler called with nil Message or From", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	reply := func(text string) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		}
	}

	userID, name, ok := parseRenameArgs(update.Message.Text)
	if !ok {
		reply(h.deps.Config.Messages.RenameUsage)
		return
	}

	log.InfoContext(ctx, "Admin requested person rename",
		"chat_id", chatID,
		"admin_user_id", update.Message.From.ID,
		"target_user_id", userID,
		"new_name", name,
	)

	err := h.deps.Store.SetPersonName(ctx, database.PlatformTelegram, userID, name)
	switch {
	case errors.Is(err, database.ErrNotFound):
		reply(h.deps.Config.Messages.RenameUnknownUser)
	case err != nil:
		log.ErrorContext(ctx, "Failed to rename person", "error", err, "target_user_id", userID)
		reply(h.deps.Config.Messages.GeneralError)
	default:
		log.InfoContext(ctx, "Renamed person", "target_user_id", userID, "new_name", name)
		reply(fmt.Sprintf(h.deps.Config.Messages.RenameDoneFmt, userID, name))
	}
}

// parseRenameArgs reads "/sketch_rename <user_id> <name...>".
func parseRenameArgs(text string) (userID, name string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return "", "", false
	}
	if _, err := strconv.ParseInt(fields[1], 10, 64); err != nil {
		return "", "", false
	}
	return fields[1], strings.Join(fields[2:], " "), true
}
