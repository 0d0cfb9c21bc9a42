package database

import (
	"math"
	"time"
)

// Message is one recorded chat message in processed plain text form.
// Time is Unix seconds with a fractional part.
type Message struct {
	ID                 int64     `db:"id"`
	MessageID          string    `db:"message_id"`
	StreamID           string    `db:"stream_id"`
	UserID             string    `db:"user_id"`
	UserNickname       string    `db:"user_nickname"`
	ProcessedPlainText string    `db:"processed_plain_text"`
	Time               float64   `db:"time"`
	IsCommand          bool      `db:"is_command"`
	CreatedAt          time.Time `db:"created_at"`
}

// Timestamp converts Time to a time.Time.
func (m *Message) Timestamp() time.Time {
	sec, frac := math.Modf(m.Time)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// UnixSeconds converts t to the representation stored in Message.Time.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Person is a chat participant known to the bot. PersonName is the display
// name used in portrayals; Nickname is the platform handle or full name.
type Person struct {
	PersonID   string    `db:"person_id"`
	Platform   string    `db:"platform"`
	UserID     string    `db:"user_id"`
	Nickname   string    `db:"nickname"`
	PersonName string    `db:"person_name"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Stream is a chat conversation: a group (GroupID set) or a private chat
// (UserID set).
type Stream struct {
	StreamID  string    `db:"stream_id"`
	Platform  string    `db:"platform"`
	GroupID   string    `db:"group_id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Portrayal is a generated personality profile as dispatched to the chat.
type Portrayal struct {
	ID           int64     `db:"id"`
	PersonID     string    `db:"person_id"`
	StreamID     string    `db:"stream_id"`
	Model        string    `db:"model"`
	MessageCount int       `db:"message_count"`
	TargetCount  int       `db:"target_count"`
	OtherCount   int       `db:"other_count"`
	Content      string    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
}

// MessageFilter restricts FindMessages. Zero values mean "no restriction";
// After and Before are exclusive bounds in Unix seconds. A positive Limit
// keeps the most recent Limit messages.
type MessageFilter struct {
	UserIDs         []string
	After           float64
	Before          float64
	StreamID        string
	Limit           int
	ExcludeCommands bool
}
