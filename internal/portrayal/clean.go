package portrayal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TruncationSuffix is appended to messages cut at the length limit.
const TruncationSuffix = "......[由于消息过长，后续消息已被截断]"

// fileMarker marks messages that only carry an attachment.
const fileMarker = "[文件:"

type cleanRule struct {
	trigger string
	pattern *regexp.Regexp
}

// cleanRules run in order; each only when its trigger is present.
var cleanRules = []cleanRule{
	{"转发消息开始", regexp.MustCompile(`={10}\s*转发消息开始\s*={10}\s*([\s\S]*?)\s*={10}\s*转发消息结束\s*={10}`)},
	{"回复", regexp.MustCompile(`(?s)\[回复<.+]，说：`)},
	{"@", regexp.MustCompile(`@<.+>`)},
	{"[表情包", regexp.MustCompile(`(?s)\[表情包.+]`)},
	{"[picid", regexp.MustCompile(`(?s)\[picid.+]`)},
	{"[command", regexp.MustCompile(`(?s)\[command.+]`)},
}

// CleanText strips host markup from processed plain text. ok is false when
// the message should be skipped: it is blank, carries a file attachment, or
// has nothing left after cleaning.
func CleanText(text string, maxLen int) (cleaned string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(text, fileMarker) {
		return "", false
	}

	for _, r := range cleanRules {
		if strings.Contains(text, r.trigger) {
			text = r.pattern.ReplaceAllString(text, "")
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return Truncate(text, maxLen), true
}

// Truncate keeps the first maxLen characters of text and appends
// TruncationSuffix. maxLen <= 0 disables truncation.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + TruncationSuffix
}
