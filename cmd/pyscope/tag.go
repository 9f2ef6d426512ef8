package main

import (
	"github.com/spf13/cobra"

	"pyscope/internal/daemon"
)

var tagCmd = &cobra.Command{
	Use:   "tag FILE:LINE",
	Short: "Print the definition enclosing a line",
	Long:  "Resolves the innermost class or function containing LINE and prints it as \"dotted.path (kind)\". Prints nothing when the line is outside every definition.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	path, line, err := parseLocation(args[0])
	if err != nil {
		return err
	}

	if client := daemonClient(); client != nil {
		tag, err := client.Resolve(path, line)
		if err != nil {
			return err
		}
		return outputTag(tag)
	}

	h, err := scanFile(path)
	if err != nil {
		return err
	}
	res, ok := h.Resolve(line)
	if !ok {
		return outputTag(nil)
	}
	return outputTag(&daemon.TagInfo{
		Path:       res.Path,
		Kind:       res.Kind.String(),
		StatusLine: res.String(),
	})
}
