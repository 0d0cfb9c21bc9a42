package handlers

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"
)

const (
	forwardStart = "========== 转发消息开始 =========="
	forwardEnd   = "========== 转发消息结束 =========="

	quoteMaxRunes = 30
)

// segment is a piece of message text. Mentions carry the mentioned user.
type segment struct {
	text    string
	userID  string
	display string
}

func (s segment) isMention() bool { return s.userID != "" }

// mentionResolver maps a mention entity and its raw text to a user.
type mentionResolver func(e models.MessageEntity, raw string) (userID, display string, ok bool)

// splitEntities cuts text at resolvable mention entities. Entity offsets
// count UTF-16 code units.
func splitEntities(text string, entities []models.MessageEntity, resolve mentionResolver) []segment {
	if text == "" {
		return nil
	}
	units := utf16.Encode([]rune(text))

	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b models.MessageEntity) int { return a.Offset - b.Offset })

	var segs []segment
	pos := 0
	for _, e := range sorted {
		if e.Type != models.MessageEntityTypeMention && e.Type != models.MessageEntityTypeTextMention {
			continue
		}
		end := e.Offset + e.Length
		if e.Offset < pos || e.Length <= 0 || end > len(units) {
			continue
		}
		raw := string(utf16.Decode(units[e.Offset:end]))
		userID, display, ok := resolve(e, raw)
		if !ok {
			continue
		}
		if e.Offset > pos {
			segs = append(segs, segment{text: string(utf16.Decode(units[pos:e.Offset]))})
		}
		segs = append(segs, segment{text: raw, userID: userID, display: display})
		pos = end
	}
	if pos < len(units) {
		segs = append(segs, segment{text: string(utf16.Decode(units[pos:]))})
	}
	return segs
}

// mentionMarkup renders a mention as stored: "@<display:id>".
func mentionMarkup(s segment) string {
	return fmt.Sprintf("@<%s:%s>", s.display, s.userID)
}

// joinSegments renders segments, formatting mentions with mention.
func joinSegments(segs []segment, mention func(segment) string) string {
	var b strings.Builder
	for _, s := range segs {
		if s.isMention() {
			b.WriteString(mention(s))
		} else {
			b.WriteString(s.text)
		}
	}
	return b.String()
}

// commandSegments lists segments the way the portrayal command reads them.
func commandSegments(segs []segment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.isMention() {
			out = append(out, mentionMarkup(s))
		} else {
			out = append(out, s.text)
		}
	}
	return out
}

// argumentText renders mentions as "@<id>" so each stays one argument.
func argumentText(segs []segment) string {
	return joinSegments(segs, func(s segment) string { return "@<" + s.userID + ">" })
}

// processedText builds the stored plain-text form of msg around body, the
// already rendered text or caption.
func processedText(msg *models.Message, body string) string {
	var parts []string
	if len(msg.Photo) > 0 {
		parts = append(parts, "[picid:"+msg.Photo[len(msg.Photo)-1].FileUniqueID+"]")
	}
	if msg.Sticker != nil {
		parts = append(parts, "[表情包："+msg.Sticker.Emoji+"]")
	}
	if msg.Document != nil {
		parts = append(parts, "[文件:"+msg.Document.FileName+"]")
	}
	if body = strings.TrimSpace(body); body != "" {
		parts = append(parts, body)
	}
	content := strings.Join(parts, " ")
	if content == "" {
		return ""
	}

	if msg.ForwardOrigin != nil {
		content = forwardStart + "\n" + content + "\n" + forwardEnd
	}
	if r := msg.ReplyToMessage; r != nil && r.From != nil {
		content = fmt.Sprintf("[回复<%s:%d>：%s]，说：", displayName(r.From), r.From.ID, quote(r)) + content
	}
	return content
}

// isCommandText reports whether text invokes a bot command.
func isCommandText(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "/") || strings.HasPrefix(text, "#")
}

func quote(m *models.Message) string {
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if text == "" {
		switch {
		case len(m.Photo) > 0:
			text = "[图片]"
		case m.Sticker != nil:
			text = "[表情包]"
		default:
			text = "[消息]"
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > quoteMaxRunes {
		text = string([]rune(text)[:quoteMaxRunes]) + "…"
	}
	return text
}

// displayName is the full name of u, falling back to the username.
func displayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}

// nickname is the handle of u, falling back to the full name.
func nickname(u *models.User) string {
	if u.Username != "" {
		return u.Username
	}
	return displayName(u)
}
