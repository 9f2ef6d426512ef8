package pyscope

import (
	"regexp"
	"strings"
)

// lineClass is the classification of one raw source line.
type lineClass int

const (
	classBlank lineClass = iota
	classComment
	classContinuation
	classDecorator
	classDefinition
	classStatement
)

// reDefinition matches a class or def statement and captures the
// keyword and the identifier. The name set is deliberately loose
// (anything up to whitespace, "(" or ":") so that non-ASCII
// identifiers survive.
var reDefinition = regexp.MustCompile(`^[ \t]*(?:async[ \t]+)?(class|def)[ \t]+([^\s(:]+)`)

type classified struct {
	class   lineClass
	indent  int
	name    string
	isClass bool
}

// scanState carries quote, bracket and backslash state across lines so
// that multi-line constructs classify as continuations. Without it a
// triple-quoted string containing the literal text "class Fake:" at
// column 0 would be mistaken for a definition.
type scanState struct {
	quote     string // open triple-quote delimiter, "" when outside a string
	depth     int    // open (, [, { depth
	backslash bool   // previous line ended with a backslash continuation
}

// classify determines what line is and advances the running state.
// Calls must happen once per line, in buffer order.
func (st *scanState) classify(line string) classified {
	continued := st.quote != "" || st.depth > 0 || st.backslash
	st.advance(line)
	if continued {
		return classified{class: classContinuation}
	}

	indent := indentWidth(line)
	body := strings.TrimSpace(line)
	switch {
	case body == "":
		return classified{class: classBlank, indent: indent}
	case strings.HasPrefix(body, "#"):
		return classified{class: classComment, indent: indent}
	case strings.HasPrefix(body, "@"):
		// Decorators share their definition's indent discipline but
		// never produce a tag themselves.
		return classified{class: classDecorator, indent: indent}
	}
	if m := reDefinition.FindStringSubmatch(line); m != nil {
		return classified{
			class:   classDefinition,
			indent:  indent,
			name:    m[2],
			isClass: m[1] == "class",
		}
	}
	return classified{class: classStatement, indent: indent}
}

// advance threads the quote/bracket/backslash state through one line.
func (st *scanState) advance(line string) {
	// A backslash continuation only ever spans a single line.
	st.backslash = false

	i := 0
	for i < len(line) {
		c := line[i]

		if st.quote != "" {
			switch {
			case c == '\\':
				i += 2
			case strings.HasPrefix(line[i:], st.quote):
				i += len(st.quote)
				st.quote = ""
			default:
				i++
			}
			continue
		}

		switch c {
		case '#':
			// Comment runs to end of line; nothing after it can open
			// a string or continue the statement.
			return
		case '\'', '"':
			if i+2 < len(line) && line[i+1] == c && line[i+2] == c {
				st.quote = line[i : i+3]
				i += 3
				continue
			}
			i = skipShortString(line, i)
		case '(', '[', '{':
			st.depth++
			i++
		case ')', ']', '}':
			if st.depth > 0 {
				st.depth--
			}
			i++
		case '\\':
			if i == len(line)-1 {
				st.backslash = true
			}
			i += 2
		default:
			i++
		}
	}
}

// skipShortString consumes a single-quoted string starting at i and
// returns the index just past its closing quote. An unterminated short
// string is treated as closed at end of line; the user is mid-edit.
func skipShortString(line string, i int) int {
	q := line[i]
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case q:
			return i + 1
		default:
			i++
		}
	}
	return i
}

// indentWidth counts leading whitespace columns. Tabs count as one
// column each and are never expanded; scopes only compare indents
// within a single file, so any consistent measure works.
func indentWidth(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

// Scan makes one pass over a buffer's lines and builds its scope
// hierarchy. Nesting is tracked with an explicit stack of open tags
// rather than recursion, and the result is a flat arena with parent
// index links.
//
// Scan never fails. Inconsistent indentation, unterminated strings and
// other mid-edit damage degrade to a best-effort hierarchy instead of
// an error.
func Scan(lines []string) *Hierarchy {
	h := &Hierarchy{}
	var st scanState
	var open []int // arena indexes of currently open tags, innermost last

	for n, line := range lines {
		c := st.classify(line)
		if c.class == classBlank || c.class == classComment || c.class == classContinuation {
			// These never close a scope: trailing blanks and comments
			// belong to the body they follow.
			continue
		}

		lineNo := n + 1
		for len(open) > 0 && h.tags[open[len(open)-1]].Indent >= c.indent {
			h.tags[open[len(open)-1]].End = lineNo - 1
			open = open[:len(open)-1]
		}
		if c.class != classDefinition {
			continue
		}

		parent := -1
		if len(open) > 0 {
			parent = open[len(open)-1]
		}
		kind := KindFunction
		switch {
		case c.isClass:
			kind = KindClass
		case parent >= 0 && h.tags[parent].Kind == KindClass:
			kind = KindMethod
		}

		h.tags = append(h.tags, Tag{
			Name:   c.name,
			Kind:   kind,
			Line:   lineNo,
			Indent: c.indent,
			End:    len(lines), // provisional; fixed up when the scope closes
			parent: parent,
		})
		open = append(open, len(h.tags)-1)
	}
	return h
}

// SplitLines splits raw buffer content into lines for Scan, tolerating
// both \n and \r\n endings.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
