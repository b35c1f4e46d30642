// Package archive provides SQLite-backed long-term storage of classified
// mentions. The dashboard and history files only keep rolling windows; the
// archive keeps everything for later analysis.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"alpine-pulse/mention"
)

// Store provides SQLite-backed persistence for classified mentions.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS mentions (
	id TEXT PRIMARY KEY,
	date TEXT,
	source TEXT,
	resort TEXT,
	text TEXT,
	url TEXT,
	timestamp TEXT,
	engagement TEXT,
	author TEXT,
	government INTEGER,
	sentiment TEXT,
	score INTEGER,
	theme TEXT,
	takeaway TEXT,
	analyzed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_mentions_date ON mentions(date);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMentions stores the classified mentions of one run under the given
// date. Uses INSERT OR REPLACE keyed on mention ID, so re-running the same
// day is idempotent.
func (s *Store) SaveMentions(date string, ms []mention.Classified) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("archive: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO mentions
		 (id, date, source, resort, text, url, timestamp, engagement, author, government, sentiment, score, theme, takeaway, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("archive: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, m := range ms {
		gov := 0
		if m.GovernmentRelated {
			gov = 1
		}
		if _, err := stmt.Exec(
			m.ID, date, m.Source, m.Resort, m.Text, m.URL, m.Timestamp,
			m.Engagement, m.Author, gov, m.Sentiment, m.Score, m.Theme,
			m.Takeaway, now,
		); err != nil {
			return fmt.Errorf("archive: save mention %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// CountForDate returns how many mentions are archived under the given date.
func (s *Store) CountForDate(date string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM mentions WHERE date = ?`, date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("archive: count for date %s: %w", date, err)
	}
	return count, nil
}

// Recent returns the most recently analyzed mentions, up to limit.
func (s *Store) Recent(limit int) ([]mention.Classified, error) {
	rows, err := s.db.Query(
		`SELECT id, source, resort, text, url, timestamp, engagement, author, government, sentiment, score, theme, takeaway
		 FROM mentions ORDER BY analyzed_at DESC, timestamp DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: query recent: %w", err)
	}
	defer rows.Close()

	var ms []mention.Classified
	for rows.Next() {
		var m mention.Classified
		var gov int
		if err := rows.Scan(
			&m.ID, &m.Source, &m.Resort, &m.Text, &m.URL, &m.Timestamp,
			&m.Engagement, &m.Author, &gov, &m.Sentiment, &m.Score, &m.Theme,
			&m.Takeaway,
		); err != nil {
			return nil, fmt.Errorf("archive: scan mention: %w", err)
		}
		m.GovernmentRelated = gov != 0
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterate mentions: %w", err)
	}
	return ms, nil
}
