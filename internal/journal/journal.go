// Package journal keeps a local activity log of registry mutations in a
// SQLite database. The server exposes no activity feed, so the timeline
// shown in the UI is built from entries recorded here.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"dedi/internal/log"
)

// Outcome records whether a mutation succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Entry is one recorded activity.
type Entry struct {
	ID           string
	Timestamp    time.Time
	Action       string
	NamespaceID  string
	RegistryName string
	Outcome      Outcome
	Detail       string
}

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	action TEXT NOT NULL,
	namespace_id TEXT NOT NULL DEFAULT '',
	registry_name TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_activity_namespace
	ON activity(namespace_id, timestamp);
`

// Store persists activity entries.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Store, error) {
	log.Debug(log.CatJournal, "Opening journal", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		log.ErrorErr(log.CatJournal, "Failed to create journal directory", err, "path", path)
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatJournal, "Failed to open journal", err, "path", path)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		log.ErrorErr(log.CatJournal, "Failed to ping journal", err, "path", path)
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		log.ErrorErr(log.CatJournal, "Failed to apply journal schema", err)
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}

	log.Info(log.CatJournal, "Journal ready", "path", path)
	return &Store{db: db, dbPath: path}, nil
}

// OpenInMemory opens an ephemeral journal. Used in tests and when no
// journal path is available.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry. The ID and Timestamp are assigned here when
// unset.
func (s *Store) Record(entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO activity (id, timestamp, action, namespace_id, registry_name, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Action, entry.NamespaceID,
		entry.RegistryName, string(entry.Outcome), entry.Detail,
	)
	if err != nil {
		log.ErrorErr(log.CatJournal, "Failed to record activity", err, "action", entry.Action)
		return Entry{}, err
	}

	log.Debug(log.CatJournal, "Recorded activity",
		"action", entry.Action, "registry", entry.RegistryName, "outcome", entry.Outcome)
	return entry, nil
}

// Query filters entries. Zero-valued fields match everything.
type Query struct {
	NamespaceID  string
	RegistryName string
	Limit        int
}

// Recent returns entries matching the query, newest first.
func (s *Store) Recent(q Query) ([]Entry, error) {
	query := `SELECT id, timestamp, action, namespace_id, registry_name, outcome, detail
		FROM activity WHERE 1=1`
	var args []any
	if q.NamespaceID != "" {
		query += " AND namespace_id = ?"
		args = append(args, q.NamespaceID)
	}
	if q.RegistryName != "" {
		query += " AND registry_name = ?"
		args = append(args, q.RegistryName)
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.ErrorErr(log.CatJournal, "Recent query failed", err)
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.NamespaceID,
			&e.RegistryName, &outcome, &e.Detail); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM activity WHERE timestamp < ?`, olderThan)
	if err != nil {
		log.ErrorErr(log.CatJournal, "Prune failed", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info(log.CatJournal, "Pruned journal entries", "count", n)
	}
	return n, nil
}
