package pyscope

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenTag mirrors one expected tag in a .golden.json file.
type goldenTag struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
	End  int    `json:"end"`
}

// TestGolden scans every testdata/*.py fixture and compares the full
// hierarchy against its .golden.json sibling.
func TestGolden(t *testing.T) {
	entries, err := os.ReadDir("testdata")
	require.NoError(t, err)

	ran := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".py") {
			continue
		}
		ran++
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", name))
			require.NoError(t, err)

			goldenPath := filepath.Join("testdata", strings.TrimSuffix(name, ".py")+".golden.json")
			raw, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			var want []goldenTag
			require.NoError(t, json.Unmarshal(raw, &want))

			h := Scan(SplitLines(string(src)))
			got := make([]goldenTag, 0, h.Len())
			for i, tag := range h.Tags() {
				got = append(got, goldenTag{
					Path: h.Path(i),
					Kind: tag.Kind.String(),
					Line: tag.Line,
					End:  tag.End,
				})
			}
			assert.Equal(t, want, got)
		})
	}
	require.NotZero(t, ran, "no fixtures found")
}
