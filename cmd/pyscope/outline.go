package main

import (
	"os"

	"github.com/spf13/cobra"

	"pyscope/internal/daemon"
)

var outlineCmd = &cobra.Command{
	Use:   "outline FILE",
	Short: "List every class and function in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	path := args[0]

	var tags []daemon.TagInfo
	if client := daemonClient(); client != nil {
		var err error
		tags, err = client.Outline(path)
		if err != nil {
			return err
		}
	} else {
		h, err := scanFile(path)
		if err != nil {
			return err
		}
		tags = make([]daemon.TagInfo, 0, h.Len())
		for i, tag := range h.Tags() {
			tags = append(tags, daemon.TagInfo{
				Path: h.Path(i),
				Kind: tag.Kind.String(),
				Line: tag.Line,
			})
		}
	}

	if flagFormat == "json" {
		return outputJSON(tags)
	}
	formatOutlineText(os.Stdout, tags)
	return nil
}
