package pyscope

// Kind classifies a tag as a class, a method, or a plain function.
//
// A def is a method only when its nearest enclosing open scope is a
// class; a def nested inside a function stays a function.
type Kind int

const (
	KindClass Kind = iota
	KindMethod
	KindFunction
)

// String renders the kind the way a status line shows it.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Tag is one class or def occurrence in a buffer snapshot.
type Tag struct {
	// Name is the bare identifier following the class/def keyword.
	Name string

	Kind Kind

	// Line is the 1-based line number of the definition statement.
	Line int

	// Indent is the column of the definition keyword, counting each
	// leading space or tab as one column. Tabs are never expanded.
	Indent int

	// End is the 1-based last line of the body: the line before the
	// first subsequent non-blank, non-comment, non-continuation line
	// whose indent is <= Indent, or the last line of the buffer.
	End int

	// parent indexes the enclosing tag in the hierarchy arena, or -1
	// for a top-level tag.
	parent int
}

// Result identifies the innermost enclosing scope for a line.
type Result struct {
	// Path is the dotted name from the outermost scope inward, e.g.
	// "Outer.Inner.method".
	Path string
	Kind Kind
}

// String renders the result in the original status-line form,
// "<path> (<kind>)".
func (r Result) String() string {
	return r.Path + " (" + r.Kind.String() + ")"
}

// Hierarchy is the complete ordered set of tags detected in one buffer
// snapshot. Tags appear in start-line order, which is also a pre-order
// traversal of the nesting tree. A Hierarchy is immutable once built
// and is replaced wholesale on rebuild, never mutated.
type Hierarchy struct {
	tags []Tag
}

// Tags returns the tags in start-line order. Callers must not modify
// the returned slice.
func (h *Hierarchy) Tags() []Tag {
	return h.tags
}

// Len returns the number of tags.
func (h *Hierarchy) Len() int {
	return len(h.tags)
}

// Parent returns the enclosing tag of the tag at index i, or ok=false
// for a top-level tag.
func (h *Hierarchy) Parent(i int) (Tag, bool) {
	if i < 0 || i >= len(h.tags) || h.tags[i].parent < 0 {
		return Tag{}, false
	}
	return h.tags[h.tags[i].parent], true
}
