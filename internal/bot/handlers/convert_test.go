package handlers

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func knownUsers(e models.MessageEntity, raw string) (string, string, bool) {
	if e.Type == models.MessageEntityTypeTextMention && e.User != nil {
		return "7", displayName(e.User), true
	}
	if raw == "@bob" {
		return "42", "Bob Smith", true
	}
	return "", "", false
}

func TestSplitEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		entities []models.MessageEntity
		stored   string
		args     string
		segments []string
	}{
		{
			name:     "no entities",
			text:     "/画像 张三",
			stored:   "/画像 张三",
			args:     "/画像 张三",
			segments: []string{"/画像 张三"},
		},
		{
			name:     "username mention",
			text:     "/画像 @bob 全部",
			entities: []models.MessageEntity{{Type: models.MessageEntityTypeMention, Offset: 4, Length: 4}},
			stored:   "/画像 @<Bob Smith:42> 全部",
			args:     "/画像 @<42> 全部",
			segments: []string{"/画像 ", "@<Bob Smith:42>", " 全部"},
		},
		{
			name:     "unknown username stays text",
			text:     "hi @carol",
			entities: []models.MessageEntity{{Type: models.MessageEntityTypeMention, Offset: 3, Length: 6}},
			stored:   "hi @carol",
			args:     "hi @carol",
			segments: []string{"hi @carol"},
		},
		{
			name: "offsets count utf-16 units",
			text: "😀 Ann 好",
			entities: []models.MessageEntity{{
				Type: models.MessageEntityTypeTextMention, Offset: 3, Length: 3,
				User: &models.User{ID: 7, FirstName: "Ann"},
			}},
			stored:   "😀 @<Ann:7> 好",
			args:     "😀 @<7> 好",
			segments: []string{"😀 ", "@<Ann:7>", " 好"},
		},
		{
			name: "other entities ignored",
			text: "see https://x.y",
			entities: []models.MessageEntity{
				{Type: models.MessageEntityType("url"), Offset: 4, Length: 11},
			},
			stored:   "see https://x.y",
			args:     "see https://x.y",
			segments: []string{"see https://x.y"},
		},
		{
			name:     "out of range entity ignored",
			text:     "@bob",
			entities: []models.MessageEntity{{Type: models.MessageEntityTypeMention, Offset: 2, Length: 10}},
			stored:   "@bob",
			args:     "@bob",
			segments: []string{"@bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			segs := splitEntities(tt.text, tt.entities, knownUsers)
			assert.Equal(t, tt.stored, joinSegments(segs, mentionMarkup))
			assert.Equal(t, tt.args, argumentText(segs))
			assert.Equal(t, tt.segments, commandSegments(segs))
		})
	}
}

func TestProcessedText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *models.Message
		body string
		want string
	}{
		{name: "plain", msg: &models.Message{}, body: " hello ", want: "hello"},
		{name: "empty", msg: &models.Message{}, body: "", want: ""},
		{
			name: "photo with caption",
			msg:  &models.Message{Photo: []models.PhotoSize{{FileUniqueID: "small"}, {FileUniqueID: "big"}}},
			body: "look",
			want: "[picid:big] look",
		},
		{
			name: "sticker",
			msg:  &models.Message{Sticker: &models.Sticker{Emoji: "😀"}},
			want: "[表情包：😀]",
		},
		{
			name: "document",
			msg:  &models.Message{Document: &models.Document{FileName: "a.pdf"}},
			want: "[文件:a.pdf]",
		},
		{
			name: "reply",
			msg: &models.Message{ReplyToMessage: &models.Message{
				From: &models.User{ID: 5, FirstName: "Eve"},
				Text: "where\nare you",
			}},
			body: "here",
			want: "[回复<Eve:5>：where are you]，说：here",
		},
		{
			name: "forwarded",
			msg:  &models.Message{ForwardOrigin: &models.MessageOrigin{}},
			body: "news",
			want: forwardStart + "\nnews\n" + forwardEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, processedText(tt.msg, tt.body))
		})
	}
}

func TestIsCommandText(t *testing.T) {
	t.Parallel()

	assert.True(t, isCommandText("/画像"))
	assert.True(t, isCommandText(" #画像 全部"))
	assert.False(t, isCommandText("画像"))
	assert.False(t, isCommandText(""))
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ann Lee", displayName(&models.User{ID: 1, FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, "ann", displayName(&models.User{ID: 1, Username: "ann"}))
	assert.Equal(t, "1", displayName(&models.User{ID: 1}))
	assert.Equal(t, "ann", nickname(&models.User{ID: 1, FirstName: "Ann", Username: "ann"}))
	assert.Equal(t, "Ann", nickname(&models.User{ID: 1, FirstName: "Ann"}))
}

func TestParsePortrayalArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		name   string
		chatID string
		ok     bool
	}{
		{text: "/画像", ok: true},
		{text: "#画像 张三", name: "张三", ok: true},
		{text: "/画像 张三 全部", name: "张三", chatID: "全部", ok: true},
		{text: "/画像 @<42> -100123", name: "@<42>", chatID: "-100123", ok: true},
		{text: "/画像张三", name: "张三", ok: true},
		{text: "画像 张三", ok: false},
	}

	for _, tt := range tests {
		args, ok := parsePortrayalArgs(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.name, args.Name, tt.text)
		assert.Equal(t, tt.chatID, args.ChatID, tt.text)
	}
}

func TestParseRenameArgs(t *testing.T) {
	t.Parallel()

	id, name, ok := parseRenameArgs("/sketch_rename 42 Big Bob")
	assert.True(t, ok)
	assert.Equal(t, "42", id)
	assert.Equal(t, "Big Bob", name)

	_, _, ok = parseRenameArgs("/sketch_rename 42")
	assert.False(t, ok)
	_, _, ok = parseRenameArgs("/sketch_rename bob Bob")
	assert.False(t, ok)
}
