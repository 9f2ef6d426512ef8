package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"pyscope/internal/daemon"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"text", "json"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputTag prints one resolved tag. A nil tag means the line sits
// outside every definition: text mode prints nothing so editors can
// clear the status line, JSON mode prints null.
func outputTag(tag *daemon.TagInfo) error {
	if flagFormat == "json" {
		return outputJSON(tag)
	}
	if tag != nil {
		fmt.Println(tag.StatusLine)
	}
	return nil
}

// kindColor maps a tag kind to its display color.
func kindColor(kind string) *color.Color {
	switch kind {
	case "class":
		return color.New(color.FgYellow)
	case "method":
		return color.New(color.FgCyan)
	case "function":
		return color.New(color.FgGreen)
	default:
		return color.New(color.Reset)
	}
}

// formatOutlineText writes tags as "line kind path" rows, kinds
// colorized when stdout is a terminal.
func formatOutlineText(w io.Writer, tags []daemon.TagInfo) {
	for _, tag := range tags {
		kind := kindColor(tag.Kind).Sprint(fmt.Sprintf("%-8s", tag.Kind))
		fmt.Fprintf(w, "%5d  %s %s\n", tag.Line, kind, tag.Path)
	}
}

// searchHit is one search result row.
type searchHit struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// formatSearchText writes search hits as aligned columns.
func formatSearchText(w io.Writer, hits []searchHit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tKIND\tPATH")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", h.File, h.Line, h.Kind, h.Path)
	}
	tw.Flush()
}
