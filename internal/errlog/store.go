package errlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one aggregated failure report.
type Record struct {
	URL       string    `json:"url"`
	Reason    string    `json:"reason"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Store persists failure reports, aggregated per (url, reason).
type Store struct {
	conn *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating errlog directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening errlog database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS load_failures (
			url        TEXT NOT NULL,
			reason     TEXT NOT NULL,
			count      INTEGER NOT NULL DEFAULT 1,
			first_seen TIMESTAMP NOT NULL,
			last_seen  TIMESTAMP NOT NULL,
			PRIMARY KEY (url, reason)
		)`)
	if err != nil {
		return fmt.Errorf("creating errlog schema: %w", err)
	}
	return nil
}

// Record upserts one failure report.
func (s *Store) Record(resourceURL, reason string) error {
	now := time.Now().UTC()
	_, err := s.conn.Exec(`
		INSERT INTO load_failures (url, reason, count, first_seen, last_seen)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (url, reason) DO UPDATE SET
			count = count + 1,
			last_seen = excluded.last_seen`,
		resourceURL, reason, now, now)
	if err != nil {
		return fmt.Errorf("recording failure for %s: %w", resourceURL, err)
	}
	return nil
}

// Recent returns the most recently seen failures, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(`
		SELECT url, reason, count, first_seen, last_seen
		FROM load_failures
		ORDER BY last_seen DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.URL, &r.Reason, &r.Count, &r.FirstSeen, &r.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning failure row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.conn.Close()
}
