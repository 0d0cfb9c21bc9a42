package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/sketchbot/internal/database"
)

const dbSaveTimeout = 5 * time.Second

// recorded is the outcome of storing one incoming message.
type recorded struct {
	streamID string
	segments []segment
	message  *database.Message
}

// PersonFromUser converts a Telegram user into a person record.
func PersonFromUser(u *models.User) *database.Person {
	userID := strconv.FormatInt(u.ID, 10)
	return &database.Person{
		PersonID:   database.PersonID(database.PlatformTelegram, userID),
		Platform:   database.PlatformTelegram,
		UserID:     userID,
		Nickname:   nickname(u),
		PersonName: displayName(u),
	}
}

// StreamFromChat converts a Telegram chat into a stream record.
func StreamFromChat(chat models.Chat) *database.Stream {
	id := strconv.FormatInt(chat.ID, 10)
	if chat.Type == models.ChatTypePrivate {
		return &database.Stream{
			StreamID: database.PrivateStreamID(database.PlatformTelegram, id),
			Platform: database.PlatformTelegram,
			UserID:   id,
			Title:    strings.TrimSpace(chat.FirstName + " " + chat.LastName),
		}
	}
	return &database.Stream{
		StreamID: database.GroupStreamID(database.PlatformTelegram, id),
		Platform: database.PlatformTelegram,
		GroupID:  id,
		Title:    chat.Title,
	}
}

// recordMessage upserts the sender, the chat and any mentioned users, then
// stores msg in processed plain-text form. Store failures are logged; the
// returned stream id and segments are always usable.
func recordMessage(ctx context.Context, deps HandlerDeps, msg *models.Message) recorded {
	log := deps.Logger.With("handler", "record", "chat_id", msg.Chat.ID)

	stream := StreamFromChat(msg.Chat)
	rec := recorded{streamID: stream.StreamID}

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()

	if err := deps.Store.UpsertStream(dbCtx, stream); err != nil {
		log.ErrorContext(ctx, "Failed to record stream", "error", err)
	}
	sender := PersonFromUser(msg.From)
	if err := deps.Store.UpsertPerson(dbCtx, sender); err != nil {
		log.ErrorContext(ctx, "Failed to record sender", "error", err, "user_id", sender.UserID)
	}

	body, entities := msg.Text, msg.Entities
	if body == "" {
		body, entities = msg.Caption, msg.CaptionEntities
	}
	rec.segments = splitEntities(body, entities, mentionResolverFor(dbCtx, deps))

	text := processedText(msg, joinSegments(rec.segments, mentionMarkup))
	if text == "" {
		log.DebugContext(ctx, "Nothing to record for message", "message_id", msg.ID)
		return rec
	}

	rec.message = &database.Message{
		MessageID:          strconv.Itoa(msg.ID),
		StreamID:           stream.StreamID,
		UserID:             sender.UserID,
		UserNickname:       sender.Nickname,
		ProcessedPlainText: text,
		Time:               float64(msg.Date),
		IsCommand:          isCommandText(body),
	}
	if rec.message.Time <= 0 {
		rec.message.Time = database.UnixSeconds(time.Now())
	}
	if err := deps.Store.SaveMessage(dbCtx, rec.message); err != nil {
		log.ErrorContext(ctx, "Failed to record message", "error", err, "message_id", msg.ID)
	}
	return rec
}

// mentionResolverFor resolves text mentions directly and @username mentions
// through the bot identity or the person directory. Users seen through text
// mentions are recorded.
func mentionResolverFor(ctx context.Context, deps HandlerDeps) mentionResolver {
	return func(e models.MessageEntity, raw string) (string, string, bool) {
		if e.Type == models.MessageEntityTypeTextMention {
			if e.User == nil {
				return "", "", false
			}
			p := PersonFromUser(e.User)
			if err := deps.Store.UpsertPerson(ctx, p); err != nil {
				deps.Logger.WarnContext(ctx, "Failed to record mentioned user", "error", err, "user_id", p.UserID)
			}
			return p.UserID, displayName(e.User), true
		}

		username := strings.TrimPrefix(raw, "@")
		if bi := deps.Config.Telegram.BotInfo; bi != nil && strings.EqualFold(bi.Username, username) {
			return strconv.FormatInt(bi.ID, 10), displayName(bi), true
		}
		p, err := deps.Directory.PersonByNickname(ctx, username)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				deps.Logger.WarnContext(ctx, "Failed to resolve mention", "error", err, "username", username)
			}
			return "", "", false
		}
		display := p.PersonName
		if display == "" {
			display = p.Nickname
		}
		return p.UserID, display, true
	}
}

// recordBotMessage stores text the bot sent to streamID.
func recordBotMessage(ctx context.Context, deps HandlerDeps, streamID string, sent *models.Message, text string) {
	bi := deps.Config.Telegram.BotInfo
	if bi == nil || bi.ID == 0 {
		return
	}
	msg := &database.Message{
		StreamID:           streamID,
		UserID:             strconv.FormatInt(bi.ID, 10),
		UserNickname:       nickname(bi),
		ProcessedPlainText: text,
		Time:               database.UnixSeconds(time.Now()),
	}
	if sent != nil {
		msg.MessageID = strconv.Itoa(sent.ID)
		if sent.Date > 0 {
			msg.Time = float64(sent.Date)
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if err := deps.Store.SaveMessage(dbCtx, msg); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to record bot message", "error", err, "stream_id", streamID)
	}
}
