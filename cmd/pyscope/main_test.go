package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()

	path, line, err := parseLocation("app.py:12")
	assert.NoError(t, err)
	assert.Equal(t, "app.py", path)
	assert.Equal(t, 12, line)

	path, line, err = parseLocation("/proj/sub/app.py:3")
	assert.NoError(t, err)
	assert.Equal(t, "/proj/sub/app.py", path)
	assert.Equal(t, 3, line)
}

func TestParseLocation_Invalid(t *testing.T) {
	t.Parallel()

	for _, arg := range []string{"app.py", "app.py:", ":12", "app.py:zero", "app.py:0", "app.py:-1"} {
		_, _, err := parseLocation(arg)
		assert.Error(t, err, "arg %q", arg)
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))
	assert.Error(t, validateFormat("yaml"))
	assert.Error(t, validateFormat(""))
}

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	// TempDir has no .git directory anywhere in its ancestry
	// (unless /tmp itself is a repo, which would be unusual).
	dir := t.TempDir()

	got := findRepoRoot(dir)
	assert.Equal(t, dir, got)
}
