// Package pyscope locates the innermost enclosing class, method, or
// function for a position in a Python source buffer. It is built for
// editor status lines: given a cursor line it answers with a dotted
// scope path such as "Outer.Inner.method" and the scope's kind.
//
// # Scanning
//
// [Scan] makes a single pass over a buffer's lines and produces a
// [Hierarchy]: a flat, immutable, line-ordered arena of [Tag] entries
// with parent links. The scanner is indentation-aware, tracks
// multi-line strings, bracket continuations, backslash continuations
// and decorators, and never fails: a buffer that is mid-edit still
// yields a best-effort hierarchy.
//
// # Resolving
//
//	h := pyscope.Scan(lines)
//	res, ok := h.Resolve(cursorLine)
//	if ok {
//		fmt.Printf("%s (%s)\n", res.Path, res.Kind)
//	}
//
// A miss (cursor above the first definition, or a buffer with no
// definitions at all) is not an error; ok is false and the caller
// renders an empty status line.
//
// # Caching
//
// [Tracker] caches one hierarchy per buffer, keyed by an externally
// maintained change counter. Rebuilds happen only when the counter
// moves, so repeated cursor-motion lookups against an unchanged buffer
// skip the rescan entirely:
//
//	tr, _ := pyscope.NewTracker()
//	res, ok := tr.Resolve("buf:7", changedTick, line, linesFn)
//	...
//	tr.Evict("buf:7") // buffer closed
//
// The cmd/pyscope CLI wraps the library with one-shot commands (tag,
// outline), a persistent sqlite tag index (index, search), and a
// unix-socket daemon that maintains change counters via fsnotify.
package pyscope
