package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/pulsechat-server/internal/store"
)

// Schema creates the tables the store needs. Timestamps are stored as
// integer unix nanoseconds so conditional deletes compare exactly;
// DATETIME round-tripping loses sub-second precision. messages.seq is
// AUTOINCREMENT, which makes append order the permanent chronological
// order.
const Schema = `
CREATE TABLE IF NOT EXISTS participants (
	name          TEXT PRIMARY KEY,
	last_activity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	sender    TEXT NOT NULL,
	recipient TEXT NOT NULL DEFAULT '',
	broadcast INTEGER NOT NULL DEFAULT 0,
	body      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	sent_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== ParticipantStore implementation ====

// AddParticipant atomically inserts a participant. The PRIMARY KEY on
// name makes the check-and-insert a single store operation; a losing
// concurrent insert observes store.ErrDuplicateName.
func (s *SQLiteStore) AddParticipant(ctx context.Context, name string, lastActivity time.Time) error {
	query := `
		INSERT INTO participants (name, last_activity)
		VALUES (?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, name, lastActivity.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrDuplicateName
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// TouchParticipant refreshes a participant's activity clock.
func (s *SQLiteStore) TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error) {
	query := `
		UPDATE participants SET last_activity = ?
		WHERE name = ?
	`
	result, err := s.db.ExecContext(ctx, query, now.UnixNano(), name)
	if err != nil {
		return false, fmt.Errorf("touch participant: %w", err)
	}
	return affected(result)
}

// ListParticipants returns a snapshot of all registered participants.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]*store.Participant, error) {
	query := `
		SELECT name, last_activity
		FROM participants
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*store.Participant, 0)
	for rows.Next() {
		var p store.Participant
		var nanos int64
		if err := rows.Scan(&p.Name, &nanos); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.LastActivity = time.Unix(0, nanos)
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

// ParticipantExists reports whether name is currently registered.
func (s *SQLiteStore) ParticipantExists(ctx context.Context, name string) (bool, error) {
	query := `
		SELECT 1 FROM participants
		WHERE name = ?
	`
	var one int
	err := s.db.QueryRowContext(ctx, query, name).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query participant: %w", err)
	}
	return true, nil
}

// RemoveParticipant unconditionally removes a participant.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name string) (bool, error) {
	query := `
		DELETE FROM participants
		WHERE name = ?
	`
	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return false, fmt.Errorf("delete participant: %w", err)
	}
	return affected(result)
}

// RemoveParticipantIf removes a participant only if its activity clock
// still equals observed. A heartbeat between snapshot and removal
// changes last_activity, the WHERE clause no longer matches, and the
// participant survives.
func (s *SQLiteStore) RemoveParticipantIf(ctx context.Context, name string, observed time.Time) (bool, error) {
	query := `
		DELETE FROM participants
		WHERE name = ? AND last_activity = ?
	`
	result, err := s.db.ExecContext(ctx, query, name, observed.UnixNano())
	if err != nil {
		return false, fmt.Errorf("conditional delete participant: %w", err)
	}
	return affected(result)
}

// ==== MessageStore implementation ====

// AppendMessage inserts msg at the end of the log and fills in msg.Seq.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (id, sender, recipient, broadcast, body, kind, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.Sender, msg.Recipient, msg.Broadcast, msg.Body, msg.Kind, msg.SentAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.Seq = seq
	return nil
}

// GetMessage retrieves a message by its public ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	query := `
		SELECT seq, id, sender, recipient, broadcast, body, kind, sent_at
		FROM messages
		WHERE id = ?
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the full log in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	query := `
		SELECT seq, id, sender, recipient, broadcast, body, kind, sent_at
		FROM messages
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListLastMessages returns the last limit messages of the full log in
// append order. The window is cut before any visibility filtering so
// "last N" always means the last N of the whole log.
func (s *SQLiteStore) ListLastMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	query := `
		SELECT seq, id, sender, recipient, broadcast, body, kind, sent_at
		FROM (
			SELECT seq, id, sender, recipient, broadcast, body, kind, sent_at
			FROM messages
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query last messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// UpdateMessage rewrites the mutable fields of the message identified
// by msg.ID. seq is never touched, so the message keeps its position.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, msg *store.Message) (bool, error) {
	query := `
		UPDATE messages
		SET recipient = ?, broadcast = ?, body = ?, kind = ?, sent_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.Recipient, msg.Broadcast, msg.Body, msg.Kind, msg.SentAt.UnixNano(), msg.ID)
	if err != nil {
		return false, fmt.Errorf("update message: %w", err)
	}
	return affected(result)
}

// DeleteMessage removes a message by its public ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) (bool, error) {
	query := `
		DELETE FROM messages
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	return affected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var nanos int64
	if err := row.Scan(
		&msg.Seq,
		&msg.ID,
		&msg.Sender,
		&msg.Recipient,
		&msg.Broadcast,
		&msg.Body,
		&msg.Kind,
		&nanos,
	); err != nil {
		return nil, err
	}
	msg.SentAt = time.Unix(0, nanos)
	return &msg, nil
}

func collectMessages(rows *sql.Rows) ([]*store.Message, error) {
	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
