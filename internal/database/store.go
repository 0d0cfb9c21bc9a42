package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store defines the database operations used by the bot.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a recorded message and sets its ID.
	SaveMessage(ctx context.Context, message *Message) error
	// FindMessages returns messages matching filter in ascending time order.
	FindMessages(ctx context.Context, filter MessageFilter) ([]*Message, error)
	// DeleteMessagesBefore removes messages older than before (Unix seconds).
	DeleteMessagesBefore(ctx context.Context, before float64) (int64, error)

	// UpsertPerson records a participant. An existing PersonName is kept.
	UpsertPerson(ctx context.Context, person *Person) error
	GetPersonByUserID(ctx context.Context, platform, userID string) (*Person, error)
	GetPersonByName(ctx context.Context, name string) (*Person, error)
	// GetPersonByNickname matches the platform handle case-insensitively.
	GetPersonByNickname(ctx context.Context, platform, nickname string) (*Person, error)
	SetPersonName(ctx context.Context, platform, userID, name string) error

	UpsertStream(ctx context.Context, stream *Stream) error
	GetStreamByGroupID(ctx context.Context, platform, groupID string) (*Stream, error)
	GetStreamByUserID(ctx context.Context, platform, userID string) (*Stream, error)

	SavePortrayal(ctx context.Context, portrayal *Portrayal) error
	GetLatestPortrayal(ctx context.Context, personID string) (*Portrayal, error)

	// RunSQLMaintenance performs VACUUM and ANALYZE.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.StreamID == "" {
		return errors.New("message must have a stream_id")
	}
	if message.UserID == "" {
		return errors.New("message must have a user_id")
	}
	if message.Time <= 0 {
		return errors.New("message must have a positive time")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO messages (message_id, stream_id, user_id, user_nickname, processed_plain_text, time, is_command, created_at)
        VALUES (:message_id, :stream_id, :user_id, :user_nickname, :processed_plain_text, :time, :is_command, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "stream_id", message.StreamID, "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message (stream %s, user %s): %w", message.StreamID, message.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message", "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved", "stream_id", message.StreamID, "user_id", message.UserID, "id", message.ID)
	return nil
}

func (s *sqlxStore) FindMessages(ctx context.Context, filter MessageFilter) ([]*Message, error) {
	var (
		where []string
		args  []any
	)
	if filter.ExcludeCommands {
		where = append(where, "is_command = 0")
	}
	if filter.After > 0 {
		where = append(where, "time > ?")
		args = append(args, filter.After)
	}
	if filter.Before > 0 {
		where = append(where, "time < ?")
		args = append(args, filter.Before)
	}
	if filter.StreamID != "" {
		where = append(where, "stream_id = ?")
		args = append(args, filter.StreamID)
	}
	if len(filter.UserIDs) > 0 {
		where = append(where, "user_id IN (?)")
		args = append(args, filter.UserIDs)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, message_id, stream_id, user_id, user_nickname, processed_plain_text, time, is_command, created_at FROM messages`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if filter.Limit > 0 {
		sb.WriteString(" ORDER BY time DESC, id DESC LIMIT ?")
		args = append(args, filter.Limit)
	} else {
		sb.WriteString(" ORDER BY time ASC, id ASC")
	}

	query := sb.String()
	if len(filter.UserIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to expand user_id filter: %w", err)
		}
	}
	query = s.db.Rebind(query)

	var messages []*Message
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "Context timeout or cancellation while finding messages", "error", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error finding messages", "stream_id", filter.StreamID, "limit", filter.Limit, "error", err)
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}

	if filter.Limit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	s.logger.DebugContext(ctx, "Found messages", "stream_id", filter.StreamID, "users", len(filter.UserIDs), "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, before float64) (int64, error) {
	if before <= 0 {
		return 0, errors.New("cutoff must be positive")
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE time < ?`, before)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old messages", "before", before, "error", err)
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted messages: %w", err)
	}
	s.logger.InfoContext(ctx, "Deleted old messages", "count", deleted)
	return deleted, nil
}

func (s *sqlxStore) UpsertPerson(ctx context.Context, person *Person) error {
	if person == nil {
		return errors.New("cannot save nil person")
	}
	if person.Platform == "" || person.UserID == "" {
		return errors.New("person must have platform and user_id")
	}
	if person.PersonID == "" {
		person.PersonID = PersonID(person.Platform, person.UserID)
	}
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now

	query := `
        INSERT INTO persons (person_id, platform, user_id, nickname, person_name, created_at, updated_at)
        VALUES (:person_id, :platform, :user_id, :nickname, :person_name, :created_at, :updated_at)
        ON CONFLICT (person_id) DO UPDATE SET
            nickname = CASE WHEN excluded.nickname <> '' THEN excluded.nickname ELSE persons.nickname END,
            person_name = CASE WHEN persons.person_name = '' THEN excluded.person_name ELSE persons.person_name END,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, person); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting person", "user_id", person.UserID, "error", err)
		return fmt.Errorf("failed to upsert person %s: %w", person.UserID, err)
	}
	return nil
}

const personColumns = `person_id, platform, user_id, nickname, person_name, created_at, updated_at`

func (s *sqlxStore) GetPersonByUserID(ctx context.Context, platform, userID string) (*Person, error) {
	var p Person
	err := s.db.GetContext(ctx, &p, `SELECT `+personColumns+` FROM persons WHERE person_id = ?`, PersonID(platform, userID))
	return single(ctx, s, &p, err, "person", userID)
}

func (s *sqlxStore) GetPersonByName(ctx context.Context, name string) (*Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	var p Person
	err := s.db.GetContext(ctx, &p,
		`SELECT `+personColumns+` FROM persons WHERE person_name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	return single(ctx, s, &p, err, "person", name)
}

func (s *sqlxStore) GetPersonByNickname(ctx context.Context, platform, nickname string) (*Person, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrNotFound
	}
	var p Person
	err := s.db.GetContext(ctx, &p,
		`SELECT `+personColumns+` FROM persons WHERE platform = ? AND lower(nickname) = lower(?) ORDER BY updated_at DESC LIMIT 1`,
		platform, nickname)
	return single(ctx, s, &p, err, "person", nickname)
}

func (s *sqlxStore) SetPersonName(ctx context.Context, platform, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("person name cannot be empty")
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET person_name = ?, updated_at = ? WHERE person_id = ?`,
		name, time.Now().UTC(), PersonID(platform, userID))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error renaming person", "user_id", userID, "error", err)
		return fmt.Errorf("failed to rename person %s: %w", userID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlxStore) UpsertStream(ctx context.Context, stream *Stream) error {
	if stream == nil {
		return errors.New("cannot save nil stream")
	}
	if stream.StreamID == "" || stream.Platform == "" {
		return errors.New("stream must have stream_id and platform")
	}
	if stream.GroupID == "" && stream.UserID == "" {
		return errors.New("stream must have a group_id or user_id")
	}
	now := time.Now().UTC()
	if stream.CreatedAt.IsZero() {
		stream.CreatedAt = now
	}
	stream.UpdatedAt = now

	query := `
        INSERT INTO streams (stream_id, platform, group_id, user_id, title, created_at, updated_at)
        VALUES (:stream_id, :platform, :group_id, :user_id, :title, :created_at, :updated_at)
        ON CONFLICT (stream_id) DO UPDATE SET
            title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE streams.title END,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, stream); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting stream", "stream_id", stream.StreamID, "error", err)
		return fmt.Errorf("failed to upsert stream %s: %w", stream.StreamID, err)
	}
	return nil
}

const streamColumns = `stream_id, platform, group_id, user_id, title, created_at, updated_at`

func (s *sqlxStore) GetStreamByGroupID(ctx context.Context, platform, groupID string) (*Stream, error) {
	var st Stream
	err := s.db.GetContext(ctx, &st,
		`SELECT `+streamColumns+` FROM streams WHERE platform = ? AND group_id = ? ORDER BY updated_at DESC LIMIT 1`,
		platform, groupID)
	return single(ctx, s, &st, err, "stream", groupID)
}

func (s *sqlxStore) GetStreamByUserID(ctx context.Context, platform, userID string) (*Stream, error) {
	var st Stream
	err := s.db.GetContext(ctx, &st,
		`SELECT `+streamColumns+` FROM streams WHERE platform = ? AND group_id = '' AND user_id = ? ORDER BY updated_at DESC LIMIT 1`,
		platform, userID)
	return single(ctx, s, &st, err, "stream", userID)
}

func (s *sqlxStore) SavePortrayal(ctx context.Context, portrayal *Portrayal) error {
	if portrayal == nil {
		return errors.New("cannot save nil portrayal")
	}
	if portrayal.PersonID == "" || portrayal.Content == "" {
		return errors.New("portrayal must have person_id and content")
	}
	if portrayal.CreatedAt.IsZero() {
		portrayal.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO portrayals (person_id, stream_id, model, message_count, target_count, other_count, content, created_at)
        VALUES (:person_id, :stream_id, :model, :message_count, :target_count, :other_count, :content, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, portrayal)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving portrayal", "person_id", portrayal.PersonID, "error", err)
		return fmt.Errorf("failed to save portrayal: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		portrayal.ID = id
	}
	return nil
}

func (s *sqlxStore) GetLatestPortrayal(ctx context.Context, personID string) (*Portrayal, error) {
	var p Portrayal
	err := s.db.GetContext(ctx, &p, `
        SELECT id, person_id, stream_id, model, message_count, target_count, other_count, content, created_at
        FROM portrayals WHERE person_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, personID)
	return single(ctx, s, &p, err, "portrayal", personID)
}

// RunSQLMaintenance executes VACUUM and ANALYZE. VACUUM cannot run inside a
// transaction, so both statements go straight to the pool.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.WarnContext(ctx, "ANALYZE failed", "error", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}

func single[T any](ctx context.Context, s *sqlxStore, v *T, err error, kind, key string) (*T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	s.logger.ErrorContext(ctx, "Lookup failed", "kind", kind, "key", key, "error", err)
	return nil, fmt.Errorf("failed to get %s %s: %w", kind, key, err)
}
