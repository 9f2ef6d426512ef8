package pyscope

import (
	"sort"
	"strings"
)

// Resolve finds the innermost scope whose body contains line and
// returns its dotted path and kind. ok is false when no definition
// encloses the line; callers render that as an empty status line.
func (h *Hierarchy) Resolve(line int) (Result, bool) {
	i := h.indexAt(line)
	if i < 0 {
		return Result{}, false
	}
	return Result{Path: h.Path(i), Kind: h.tags[i].Kind}, true
}

// At returns the innermost tag covering line.
func (h *Hierarchy) At(line int) (Tag, bool) {
	i := h.indexAt(line)
	if i < 0 {
		return Tag{}, false
	}
	return h.tags[i], true
}

// indexAt returns the arena index of the innermost tag whose
// [Line, End] span covers line, or -1. Tags are start-line ordered and
// a child always starts after its parent, so scanning backwards makes
// the first covering tag the innermost one.
func (h *Hierarchy) indexAt(line int) int {
	for i := len(h.tags) - 1; i >= 0; i-- {
		if h.tags[i].Line <= line && line <= h.tags[i].End {
			return i
		}
	}
	return -1
}

// Path builds the dotted name for the tag at index i by walking parent
// links outward, e.g. "Outer.Inner.method". Returns "" for an index
// out of range.
func (h *Hierarchy) Path(i int) string {
	if i < 0 || i >= len(h.tags) {
		return ""
	}
	var names []string
	for ; i >= 0; i = h.tags[i].parent {
		names = append(names, h.tags[i].Name)
	}
	var b strings.Builder
	for j := len(names) - 1; j >= 0; j-- {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(names[j])
	}
	return b.String()
}

// Next returns the first tag starting strictly after line. Editors use
// it for jump-to-next-definition motions.
func (h *Hierarchy) Next(line int) (Tag, bool) {
	i := sort.Search(len(h.tags), func(i int) bool { return h.tags[i].Line > line })
	if i == len(h.tags) {
		return Tag{}, false
	}
	return h.tags[i], true
}

// Prev returns the last tag starting strictly before line.
func (h *Hierarchy) Prev(line int) (Tag, bool) {
	i := sort.Search(len(h.tags), func(i int) bool { return h.tags[i].Line >= line })
	if i == 0 {
		return Tag{}, false
	}
	return h.tags[i-1], true
}
