// Package revisions persists the before/after history of every scrub pass in
// a SQLite database, so any mutated document can be rolled back later.
package revisions

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
)

const (
	dbFileName = "revisions.db"
	dbFilePerm = 0600

	// CurrentSchemaVersion is the PRAGMA user_version this store migrates to.
	CurrentSchemaVersion = 1
)

// Store is a SQLite-backed revision log. Revision IDs are ULIDs, so ordering
// by ID descending returns newest first without a timestamp index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the revision database under dataDir and
// migrates the schema to the current version.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open revision database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate revision database: %w", err)
	}

	// Revisions carry full document texts. Best effort only; some
	// filesystems do not support chmod.
	_ = os.Chmod(dbPath, dbFilePerm)

	return &Store{db: db}, nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL journal mode, got %q", mode)
	}
	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func setSchemaVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
CREATE TABLE IF NOT EXISTS revisions (
	id             TEXT PRIMARY KEY,
	collection     TEXT NOT NULL,
	doc_id         TEXT NOT NULL,
	phrase         TEXT NOT NULL,
	title_before   TEXT NOT NULL DEFAULT '',
	title_after    TEXT NOT NULL DEFAULT '',
	content_before TEXT NOT NULL DEFAULT '',
	content_after  TEXT NOT NULL DEFAULT '',
	removed        INTEGER NOT NULL DEFAULT 0,
	replaced       INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_doc ON revisions(collection, doc_id, id);
`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if err := setSchemaVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// newRevisionID generates a ULID. Monotonic entropy keeps IDs strictly
// increasing within the same millisecond.
func newRevisionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate revision ID: %w", err)
	}
	return id.String(), nil
}

// Record assigns the revision an ID and creation time and inserts it. The
// passed revision is updated in place so callers can report the new ID.
func (s *Store) Record(rev *model.Revision) error {
	id, err := newRevisionID()
	if err != nil {
		return err
	}
	rev.ID = id
	rev.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO revisions
		(id, collection, doc_id, phrase, title_before, title_after, content_before, content_after, removed, replaced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query,
		rev.ID, rev.Collection, rev.DocID, rev.Phrase,
		rev.TitleBefore, rev.TitleAfter, rev.ContentBefore, rev.ContentAfter,
		rev.Removed, rev.Replaced, rev.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record revision: %w", err)
	}
	return nil
}

// ListByDocument returns the revisions for one document, newest first. A
// non-positive limit returns all of them.
func (s *Store) ListByDocument(collection, docID string, limit int) ([]model.Revision, error) {
	query := `SELECT id, collection, doc_id, phrase, title_before, title_after, content_before, content_after, removed, replaced, created_at
		FROM revisions WHERE collection = ? AND doc_id = ? ORDER BY id DESC`
	args := []interface{}{collection, docID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var revs []model.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revisions: %w", err)
	}
	return revs, nil
}

// GetByID fetches one revision of one document.
func (s *Store) GetByID(collection, docID, revisionID string) (model.Revision, error) {
	query := `SELECT id, collection, doc_id, phrase, title_before, title_after, content_before, content_after, removed, replaced, created_at
		FROM revisions WHERE collection = ? AND doc_id = ? AND id = ?`
	row := s.db.QueryRow(query, collection, docID, revisionID)

	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, internalErrors.NewRevisionNotFoundError(revisionID, docID)
	}
	if err != nil {
		return model.Revision{}, err
	}
	return rev, nil
}

// CountByCollection reports how many revisions a collection has accumulated.
func (s *Store) CountByCollection(collection string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM revisions WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count revisions: %w", err)
	}
	return count, nil
}

// DeleteByCollection drops all revisions of a deleted collection.
func (s *Store) DeleteByCollection(collection string) error {
	if _, err := s.db.Exec("DELETE FROM revisions WHERE collection = ?", collection); err != nil {
		return fmt.Errorf("failed to delete revisions for collection %s: %w", collection, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRevision(row rowScanner) (model.Revision, error) {
	var rev model.Revision
	var createdAt int64
	err := row.Scan(&rev.ID, &rev.Collection, &rev.DocID, &rev.Phrase,
		&rev.TitleBefore, &rev.TitleAfter, &rev.ContentBefore, &rev.ContentAfter,
		&rev.Removed, &rev.Replaced, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, err
	}
	if err != nil {
		return model.Revision{}, fmt.Errorf("failed to scan revision: %w", err)
	}
	rev.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rev, nil
}
