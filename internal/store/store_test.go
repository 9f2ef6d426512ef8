package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFile(t *testing.T, s *Store, path string) int64 {
	t.Helper()
	id, err := s.ReplaceFile(
		&File{Path: path, Hash: "h1", LineCount: 10, IndexedAt: time.Now()},
		[]TagRecord{
			{Name: "Config", Path: "Config", Kind: "class", Line: 1, EndLine: 8, Indent: 0},
			{Name: "load", Path: "Config.load", Kind: "method", Line: 3, EndLine: 5, Indent: 4},
			{Name: "main", Path: "main", Kind: "function", Line: 9, EndLine: 10, Indent: 0},
		},
	)
	require.NoError(t, err)
	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestFileByPath_Missing(t *testing.T) {
	s := newTestStore(t)
	f, err := s.FileByPath("/none.py")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestReplaceFile_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedFile(t, s, "/proj/app.py")

	f, err := s.FileByPath("/proj/app.py")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "h1", f.Hash)
	assert.Equal(t, 10, f.LineCount)

	tags, err := s.TagsByFile("/proj/app.py")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "Config", tags[0].Path)
	assert.Equal(t, "Config.load", tags[1].Path)
}

func TestReplaceFile_DiscardsOldTags(t *testing.T) {
	s := newTestStore(t)
	seedFile(t, s, "/proj/app.py")

	_, err := s.ReplaceFile(
		&File{Path: "/proj/app.py", Hash: "h2", LineCount: 3, IndexedAt: time.Now()},
		[]TagRecord{{Name: "fresh", Path: "fresh", Kind: "function", Line: 1, EndLine: 3}},
	)
	require.NoError(t, err)

	tags, err := s.TagsByFile("/proj/app.py")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "fresh", tags[0].Name)
}

func TestTagAt(t *testing.T) {
	s := newTestStore(t)
	seedFile(t, s, "/proj/app.py")

	// Line inside the method: innermost wins.
	tag, err := s.TagAt("/proj/app.py", 4)
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "Config.load", tag.Path)
	assert.Equal(t, "method", tag.Kind)

	// Line in the class but outside any method.
	tag, err = s.TagAt("/proj/app.py", 7)
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "Config", tag.Path)

	// No enclosing definition.
	tag, err = s.TagAt("/proj/app.py", 99)
	require.NoError(t, err)
	assert.Nil(t, tag)
}

func TestSearchTags(t *testing.T) {
	s := newTestStore(t)
	seedFile(t, s, "/proj/app.py")
	seedFile(t, s, "/proj/other.py")

	tags, err := s.SearchTags("load")
	require.NoError(t, err)
	require.Len(t, tags, 2) // one per file
	assert.Equal(t, "Config.load", tags[0].Path)

	path, err := s.FileForTag(&tags[0])
	require.NoError(t, err)
	assert.Contains(t, []string{"/proj/app.py", "/proj/other.py"}, path)

	tags, err = s.SearchTags("nothing-matches")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteFile(t *testing.T) {
	s := newTestStore(t)
	seedFile(t, s, "/proj/app.py")

	require.NoError(t, s.DeleteFile("/proj/app.py"))
	f, err := s.FileByPath("/proj/app.py")
	require.NoError(t, err)
	assert.Nil(t, f)

	tags, err := s.TagsByFile("/proj/app.py")
	require.NoError(t, err)
	assert.Empty(t, tags)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteFile("/proj/app.py"))
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	files, tags, err := s.Counts()
	require.NoError(t, err)
	assert.Zero(t, files)
	assert.Zero(t, tags)

	seedFile(t, s, "/proj/app.py")
	files, tags, err = s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, files)
	assert.Equal(t, 3, tags)
}
