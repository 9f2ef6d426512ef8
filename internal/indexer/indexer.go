// Package indexer walks a directory tree, scans Python sources, and
// keeps the sqlite tag index in sync with the files on disk.
package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"pyscope"
	"pyscope/internal/store"
)

// Indexer scans .py files into a Store.
type Indexer struct {
	store  *store.Store
	logger *slog.Logger
}

// Stats summarizes one indexing run.
type Stats struct {
	Indexed int // files scanned and (re)written
	Skipped int // unchanged or gitignored files
	Removed int // pruned index entries with no file on disk
	Failed  int // unreadable files, logged and skipped
}

// New creates an Indexer. A nil logger falls back to slog.Default.
func New(s *store.Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: s, logger: logger}
}

// skipDirs are never descended into, on top of hidden directories.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"venv":          true,
	"site-packages": true,
}

// IndexDirectory walks root and indexes every .py file, honoring the
// repository's .gitignore. Unchanged files are skipped via content
// hash; failures on individual files are logged and skipped so one
// broken file never aborts a run. Entries for files that vanished
// from disk are pruned afterwards.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (*Stats, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	matcher := loadGitignore(root)
	stats := &Stats{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".py") {
			return nil
		}
		if matcher != nil {
			if rel, relErr := filepath.Rel(root, path); relErr == nil && matcher.MatchesPath(rel) {
				stats.Skipped++
				return nil
			}
		}
		changed, err := ix.IndexFile(path)
		switch {
		case err != nil:
			ix.logger.Warn("index failed", "path", path, "error", err)
			stats.Failed++
		case changed:
			stats.Indexed++
		default:
			stats.Skipped++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", root, err)
	}

	removed, err := ix.Prune()
	if err != nil {
		return stats, err
	}
	stats.Removed = removed
	return stats, nil
}

// IndexFile scans one file into the store. Returns false when the
// stored content hash already matches, meaning nothing was rewritten.
func (ix *Indexer) IndexFile(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve path: %w", err)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := ix.store.FileByPath(abs)
	if err != nil {
		return false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return false, nil
	}

	lines := pyscope.SplitLines(string(content))
	h := pyscope.Scan(lines)
	records := make([]store.TagRecord, 0, h.Len())
	for i, tag := range h.Tags() {
		records = append(records, store.TagRecord{
			Name:    tag.Name,
			Path:    h.Path(i),
			Kind:    tag.Kind.String(),
			Line:    tag.Line,
			EndLine: tag.End,
			Indent:  tag.Indent,
		})
	}

	_, err = ix.store.ReplaceFile(&store.File{
		Path:      abs,
		Hash:      hash,
		LineCount: len(lines),
		IndexedAt: time.Now(),
	}, records)
	if err != nil {
		return false, err
	}
	ix.logger.Debug("indexed", "path", abs, "tags", len(records))
	return true, nil
}

// Prune removes index entries whose files no longer exist on disk and
// returns how many were dropped.
func (ix *Indexer) Prune() (int, error) {
	files, err := ix.store.Files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if _, err := os.Stat(f.Path); err == nil {
			continue
		}
		if err := ix.store.DeleteFile(f.Path); err != nil {
			return removed, err
		}
		ix.logger.Debug("pruned", "path", f.Path)
		removed++
	}
	return removed, nil
}

// loadGitignore compiles root's .gitignore, or nil when there is none.
func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
