package handlers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sketchbot/internal/portrayal"
)

// PortrayalPattern matches "/画像 [name] [chat_id]"; "#" works as the prefix too.
var PortrayalPattern = regexp.MustCompile(`^[/#]画像(\s*(?P<name>\S+))?(\s+(?P<chat_id>\S+))?`)

// NewPortrayalHandler returns the handler for the portrayal command.
func NewPortrayalHandler(deps HandlerDeps) bot.HandlerFunc {
	return portrayalHandler{deps}.Handle
}

type portrayalHandler struct {
	deps HandlerDeps
}

func (h portrayalHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "portrayal")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Portrayal handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	if h.deps.Portrayal == nil {
		log.ErrorContext(ctx, "Portrayal command is not configured")
		return
	}

	rec := recordMessage(ctx, h.deps, msg)
	args, ok := parsePortrayalArgs(argumentText(rec.segments))
	if !ok {
		log.DebugContext(ctx, "Message does not match the portrayal command", "chat_id", msg.Chat.ID)
		return
	}

	inv := &portrayal.Invocation{
		UserID:   strconv.FormatInt(msg.From.ID, 10),
		Nickname: nickname(msg.From),
		StreamID: rec.streamID,
		Args:     args,
		Segments: commandSegments(rec.segments),
		Replier:  newChatReplier(h.deps, b, msg, rec.streamID),
	}

	log.InfoContext(ctx, "Handling portrayal command",
		"chat_id", msg.Chat.ID,
		"user_id", inv.UserID,
		"name_arg", args.Name,
		"chat_arg", args.ChatID,
	)
	res := h.deps.Portrayal.Execute(ctx, inv)
	log.InfoContext(ctx, "Portrayal command finished", "chat_id", msg.Chat.ID, "handled", res.Handled, "notice", res.Text)
}

// parsePortrayalArgs extracts the name and chat id arguments.
func parsePortrayalArgs(text string) (portrayal.Args, bool) {
	m := PortrayalPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return portrayal.Args{}, false
	}
	return portrayal.Args{
		Name:   strings.TrimSpace(m[PortrayalPattern.SubexpIndex("name")]),
		ChatID: strings.TrimSpace(m[PortrayalPattern.SubexpIndex("chat_id")]),
	}, true
}
