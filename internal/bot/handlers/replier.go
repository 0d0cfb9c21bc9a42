package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sketchbot/internal/portrayal"
)

const (
	// maxMessageUnits is Telegram's message length limit, counted in UTF-16
	// code units like entity offsets.
	maxMessageUnits    = 4096
	sendMessageTimeout = 10 * time.Second
)

// messageSender is the part of *bot.Bot used to reply.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// chatReplier answers in one chat, replying to the invoking message and
// recording what the bot sends.
type chatReplier struct {
	deps     HandlerDeps
	sender   messageSender
	chatID   int64
	replyTo  int
	streamID string
}

var _ portrayal.Replier = (*chatReplier)(nil)

func newChatReplier(deps HandlerDeps, sender messageSender, msg *models.Message, streamID string) *chatReplier {
	return &chatReplier{
		deps:     deps,
		sender:   sender,
		chatID:   msg.Chat.ID,
		replyTo:  msg.ID,
		streamID: streamID,
	}
}

func (r *chatReplier) SendText(ctx context.Context, text string) error {
	return r.send(ctx, text)
}

// SendForward sends every node as bot messages, split at the length limit.
// Telegram bots cannot post on behalf of other users, so nodes attributed to
// someone else are prefixed with their nickname.
func (r *chatReplier) SendForward(ctx context.Context, nodes []portrayal.ForwardNode) error {
	botID := ""
	if bi := r.deps.Config.Telegram.BotInfo; bi != nil {
		botID = fmt.Sprintf("%d", bi.ID)
	}
	for _, n := range nodes {
		text := n.Text
		if n.UserID != "" && n.UserID != botID && n.Nickname != "" {
			text = n.Nickname + ":\n" + text
		}
		if err := r.send(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

func (r *chatReplier) send(ctx context.Context, text string) error {
	for i, chunk := range splitMessage(text, maxMessageUnits) {
		params := &bot.SendMessageParams{ChatID: r.chatID, Text: chunk}
		if i == 0 && r.replyTo > 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: r.replyTo}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
		sent, err := r.sender.SendMessage(sendCtx, params)
		cancel()
		if err != nil {
			r.deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", r.chatID)
			return fmt.Errorf("failed to send message to chat %d: %w", r.chatID, err)
		}
		recordBotMessage(ctx, r.deps, r.streamID, sent, chunk)
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring line boundaries. Runes are never split.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)
		if curLen+n <= limit {
			cur.WriteString(line)
			curLen += n
			continue
		}
		flush()
		for n > limit {
			head, units := cutUnits(line, limit)
			chunks = append(chunks, head)
			line = line[len(head):]
			n -= units
		}
		cur.WriteString(line)
		curLen = n
	}
	flush()
	return chunks
}

// cutUnits returns the longest prefix of s that fits in limit UTF-16 code
// units, and its length in units.
func cutUnits(s string, limit int) (string, int) {
	units := 0
	for i, r := range s {
		w := runeUnits(r)
		if units+w > limit {
			if i == 0 {
				// limit is smaller than one rune; emit it anyway.
				_, size := utf8.DecodeRuneInString(s)
				return s[:size], w
			}
			return s[:i], units
		}
		units += w
	}
	return s, units
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
