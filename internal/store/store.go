// Package store is the SQLite persistence layer behind the batch
// index and search commands. The interactive tracker never touches
// it; only files at rest are indexed here.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the tag index database.
type Store struct {
	db *sql.DB
}

// File is one indexed Python source file.
type File struct {
	ID        int64
	Path      string
	Hash      string
	LineCount int
	IndexedAt time.Time
}

// TagRecord is one stored tag. Path is the full dotted name; Name the
// bare identifier.
type TagRecord struct {
	ID      int64
	FileID  int64
	Name    string
	Path    string
	Kind    string
	Line    int
	EndLine int
	Indent  int
}

// NewStore opens the database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the schema. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id          INTEGER PRIMARY KEY,
  path        TEXT NOT NULL UNIQUE,
  hash        TEXT NOT NULL,
  line_count  INTEGER NOT NULL,
  indexed_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
  id        INTEGER PRIMARY KEY,
  file_id   INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name      TEXT NOT NULL,
  path      TEXT NOT NULL,
  kind      TEXT NOT NULL,
  line      INTEGER NOT NULL,
  end_line  INTEGER NOT NULL,
  indent    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tags_file ON tags(file_id);
CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name);
`

// FileByPath returns the file record for path, or nil when the path
// has never been indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	var f File
	err := s.db.QueryRow(
		`SELECT id, path, hash, line_count, indexed_at FROM files WHERE path = ?`, path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.LineCount, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return &f, nil
}

// ReplaceFile atomically replaces the record for f.Path and all its
// tags. Old tags are discarded wholesale, mirroring how the in-memory
// tracker replaces hierarchies rather than mutating them.
func (s *Store) ReplaceFile(f *File, tags []TagRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("replace file: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, f.Path); err != nil {
		return 0, fmt.Errorf("replace file: delete old: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO files (path, hash, line_count, indexed_at) VALUES (?, ?, ?, ?)`,
		f.Path, f.Hash, f.LineCount, f.IndexedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("replace file: insert: %w", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("replace file: last id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO tags (file_id, name, path, kind, line, end_line, indent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("replace file: prepare: %w", err)
	}
	defer stmt.Close()
	for _, tag := range tags {
		if _, err := stmt.Exec(fileID, tag.Name, tag.Path, tag.Kind, tag.Line, tag.EndLine, tag.Indent); err != nil {
			return 0, fmt.Errorf("replace file: insert tag %s: %w", tag.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace file: commit: %w", err)
	}
	return fileID, nil
}

// DeleteFile removes a file and its tags. Unknown paths are a no-op.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Files lists all indexed files ordered by path.
func (s *Store) Files() ([]File, error) {
	rows, err := s.db.Query(`SELECT id, path, hash, line_count, indexed_at FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.LineCount, &f.IndexedAt); err != nil {
			return nil, fmt.Errorf("files: scan: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// TagsByFile returns the tags of one file in start-line order.
func (s *Store) TagsByFile(path string) ([]TagRecord, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.file_id, t.name, t.path, t.kind, t.line, t.end_line, t.indent
		 FROM tags t JOIN files f ON f.id = t.file_id
		 WHERE f.path = ? ORDER BY t.line`, path)
	if err != nil {
		return nil, fmt.Errorf("tags by file: %w", err)
	}
	return collectTags(rows)
}

// TagAt returns the innermost stored tag covering line in the given
// file, or nil when no definition encloses it.
func (s *Store) TagAt(path string, line int) (*TagRecord, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.file_id, t.name, t.path, t.kind, t.line, t.end_line, t.indent
		 FROM tags t JOIN files f ON f.id = t.file_id
		 WHERE f.path = ? AND t.line <= ? AND t.end_line >= ?
		 ORDER BY t.line DESC LIMIT 1`, path, line, line)
	if err != nil {
		return nil, fmt.Errorf("tag at: %w", err)
	}
	tags, err := collectTags(rows)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return &tags[0], nil
}

// SearchTags finds tags whose bare name or dotted path contains the
// needle, ordered by path then line.
func (s *Store) SearchTags(needle string) ([]TagRecord, error) {
	pattern := "%" + needle + "%"
	rows, err := s.db.Query(
		`SELECT id, file_id, name, path, kind, line, end_line, indent
		 FROM tags WHERE name LIKE ? OR path LIKE ?
		 ORDER BY path, line`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return collectTags(rows)
}

// FileForTag resolves the source path for a tag's file id.
func (s *Store) FileForTag(tag *TagRecord) (string, error) {
	var path string
	err := s.db.QueryRow(`SELECT path FROM files WHERE id = ?`, tag.FileID).Scan(&path)
	if err != nil {
		return "", fmt.Errorf("file for tag: %w", err)
	}
	return path, nil
}

// Counts reports how many files and tags the index holds.
func (s *Store) Counts() (files, tags int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
		return 0, 0, fmt.Errorf("counts: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&tags); err != nil {
		return 0, 0, fmt.Errorf("counts: %w", err)
	}
	return files, tags, nil
}

func collectTags(rows *sql.Rows) ([]TagRecord, error) {
	defer rows.Close()
	var tags []TagRecord
	for rows.Next() {
		var t TagRecord
		if err := rows.Scan(&t.ID, &t.FileID, &t.Name, &t.Path, &t.Kind, &t.Line, &t.EndLine, &t.Indent); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
