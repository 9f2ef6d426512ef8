package pyscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanSource(t *testing.T, src string) *Hierarchy {
	t.Helper()
	return Scan(SplitLines(src))
}

func TestScan_EmptyBuffer(t *testing.T) {
	h := Scan(nil)
	assert.Equal(t, 0, h.Len())

	h = scanSource(t, "")
	assert.Equal(t, 0, h.Len())
}

func TestScan_NoDefinitions(t *testing.T) {
	h := scanSource(t, "import os\n\nx = 1\nprint(x)\n")
	assert.Equal(t, 0, h.Len())
}

func TestScan_ClassWithMethod(t *testing.T) {
	h := scanSource(t, "class A:\n    def m(self):\n        pass\n")
	require.Equal(t, 2, h.Len())

	tags := h.Tags()
	assert.Equal(t, "A", tags[0].Name)
	assert.Equal(t, KindClass, tags[0].Kind)
	assert.Equal(t, 1, tags[0].Line)
	assert.Equal(t, 0, tags[0].Indent)

	assert.Equal(t, "m", tags[1].Name)
	assert.Equal(t, KindMethod, tags[1].Kind)
	assert.Equal(t, 2, tags[1].Line)
	assert.Equal(t, 4, tags[1].Indent)

	parent, ok := h.Parent(1)
	require.True(t, ok)
	assert.Equal(t, "A", parent.Name)
	_, ok = h.Parent(0)
	assert.False(t, ok)
}

func TestScan_NestedDefStaysFunction(t *testing.T) {
	// A def nested in a function is a function, not a method.
	h := scanSource(t, "def outer():\n    def inner():\n        pass\n")
	require.Equal(t, 2, h.Len())
	assert.Equal(t, KindFunction, h.Tags()[0].Kind)
	assert.Equal(t, KindFunction, h.Tags()[1].Kind)
}

func TestScan_SiblingScopesClose(t *testing.T) {
	h := scanSource(t, ""+
		"def f():\n" + //      1
		"    pass\n" + //      2
		"\n" + //              3
		"def g():\n" + //      4
		"    pass\n") //       5
	require.Equal(t, 2, h.Len())
	// The blank line between bodies still belongs to f; g runs to the
	// end of the buffer, trailing empty line included.
	assert.Equal(t, 3, h.Tags()[0].End)
	assert.Equal(t, 6, h.Tags()[1].End)
}

func TestScan_DedentedStatementClosesScope(t *testing.T) {
	h := scanSource(t, ""+
		"def f():\n" + //      1
		"    pass\n" + //      2
		"\n" + //              3
		"x = 1\n" + //         4
		"\n") //               5
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 3, h.Tags()[0].End)
}

func TestScan_DecoratorProducesNoTag(t *testing.T) {
	h := scanSource(t, "@staticmethod\ndef f():\n    pass\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "f", h.Tags()[0].Name)
	assert.Equal(t, 2, h.Tags()[0].Line)
}

func TestScan_DecoratorClosesPreviousScope(t *testing.T) {
	h := scanSource(t, ""+
		"class A:\n" + //          1
		"    def m(self):\n" + //  2
		"        pass\n" + //      3
		"\n" + //                  4
		"@register\n" + //         5
		"class B:\n" + //          6
		"    pass\n") //           7
	require.Equal(t, 3, h.Len())
	// The decorator at column 0 already closes A, not class B itself.
	assert.Equal(t, 4, h.Tags()[0].End)
	assert.Equal(t, "B", h.Tags()[2].Name)
}

func TestScan_TripleQuotedStringRejected(t *testing.T) {
	// The literal text "class Fake:" at column 0 inside a multi-line
	// string must not produce a tag.
	h := scanSource(t, ""+
		"TEMPLATE = \"\"\"\n"+
		"class Fake:\n"+
		"    def phantom(self):\n"+
		"        pass\n"+
		"\"\"\"\n"+
		"def real():\n"+
		"    pass\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "real", h.Tags()[0].Name)
	assert.Equal(t, 6, h.Tags()[0].Line)
}

func TestScan_SingleQuotedTripleString(t *testing.T) {
	h := scanSource(t, "doc = '''\ndef fake():\n'''\nclass C:\n    pass\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "C", h.Tags()[0].Name)
}

func TestScan_BracketContinuation(t *testing.T) {
	// The dedented "def shadow" lines sit inside an open call and must
	// classify as continuations, closing nothing.
	h := scanSource(t, ""+
		"def f():\n" + //          1
		"    call(\n" + //         2
		"'def shadow():',\n" + //  3
		"1,\n" + //                4
		")\n" + //                 5
		"    return 2\n") //       6
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "f", h.Tags()[0].Name)
	assert.Equal(t, 7, h.Tags()[0].End)
}

func TestScan_BackslashContinuation(t *testing.T) {
	h := scanSource(t, ""+
		"def f():\n"+
		"    x = 1 + \\\n"+
		"2\n"+ // continuation at column 0; f stays open
		"    return x\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 5, h.Tags()[0].End)
}

func TestScan_CommentedDefIgnored(t *testing.T) {
	h := scanSource(t, "# def f():\n#     pass\nx = 1\n")
	assert.Equal(t, 0, h.Len())
}

func TestScan_CommentDoesNotOpenString(t *testing.T) {
	// A quote character inside a comment must not start a string.
	h := scanSource(t, "# unmatched \" quote\ndef f():\n    pass\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "f", h.Tags()[0].Name)
}

func TestScan_AsyncDef(t *testing.T) {
	h := scanSource(t, "class C:\n    async def fetch(self):\n        pass\n")
	require.Equal(t, 2, h.Len())
	assert.Equal(t, "fetch", h.Tags()[1].Name)
	assert.Equal(t, KindMethod, h.Tags()[1].Kind)
}

func TestScan_NonASCIIName(t *testing.T) {
	h := scanSource(t, "def übung():\n    pass\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "übung", h.Tags()[0].Name)
}

func TestScan_TabIndent(t *testing.T) {
	// A tab counts as a single column, never expanded.
	h := scanSource(t, "class A:\n\tdef m(self):\n\t\tpass\n")
	require.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Tags()[1].Indent)
	assert.Equal(t, KindMethod, h.Tags()[1].Kind)
}

func TestScan_UnterminatedStringAtEOF(t *testing.T) {
	// Mid-edit buffer: the string never closes. Best effort, no panic.
	h := scanSource(t, "def f():\n    s = \"\"\"\nclass Fake:\n")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "f", h.Tags()[0].Name)
	assert.Equal(t, 4, h.Tags()[0].End)
}

func TestScan_DefKeywordMidLine(t *testing.T) {
	// "def" not in statement position is not a definition.
	h := scanSource(t, "x = definitely_not = 1\nresult = classify(x)\n")
	assert.Equal(t, 0, h.Len())
}

func TestClassify_Sequence(t *testing.T) {
	lines := []string{
		"class A:",          // definition
		"    '''doc",        // statement, opens string
		"    still doc",     // continuation
		"    done'''",       // continuation (closes)
		"",                  // blank
		"    # note",        // comment
		"    @property",     // decorator
		"    def p(self):",  // definition
		"        return (1", // statement, opens bracket
		"                )", // continuation
	}
	want := []lineClass{
		classDefinition, classStatement, classContinuation,
		classContinuation, classBlank, classComment,
		classDecorator, classDefinition, classStatement,
		classContinuation,
	}
	var st scanState
	for i, line := range lines {
		got := st.classify(line)
		assert.Equal(t, want[i], got.class, "line %d: %q", i+1, line)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\r\nb"))
	assert.Equal(t, []string{""}, SplitLines(""))
}
