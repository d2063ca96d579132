// Package storage records sent messages in a local SQLite database.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 20

// ErrInvalidRecord is returned by Add for records without a topic or status.
var ErrInvalidRecord = errors.New("storage: invalid record")

// Record is one send attempt.
type Record struct {
	ID        int64
	Topic     string
	FromID    string
	ToID      string
	Channel   string
	Payload   string
	Status    string
	Error     string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// New opens or creates the history database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        topic TEXT NOT NULL,
        from_id TEXT,
        to_id TEXT,
        channel TEXT,
        payload TEXT,
        status TEXT NOT NULL,
        error TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Add stores r and returns its row id. CreatedAt defaults to now.
func (s *Store) Add(r Record) (int64, error) {
	if r.Topic == "" || r.Status == "" {
		return 0, ErrInvalidRecord
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(`INSERT INTO messages(topic, from_id, to_id, channel, payload, status, error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Topic, r.FromID, r.ToID, r.Channel, r.Payload, r.Status, r.Error, r.CreatedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns up to limit records, newest first.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(`SELECT id, topic, from_id, to_id, channel, payload, status, error, created_at
        FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []Record
	for rows.Next() {
		var r Record
		var from, to, channel, payload, errText sql.NullString
		if err := rows.Scan(&r.ID, &r.Topic, &from, &to, &channel, &payload, &r.Status, &errText, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.FromID = from.String
		r.ToID = to.String
		r.Channel = channel.String
		r.Payload = payload.String
		r.Error = errText.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
