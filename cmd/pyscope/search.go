package main

import (
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search NAME",
	Short: "Find definitions by name across the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	tags, err := s.SearchTags(args[0])
	if err != nil {
		return err
	}

	hits := make([]searchHit, 0, len(tags))
	for i := range tags {
		file, err := s.FileForTag(&tags[i])
		if err != nil {
			return err
		}
		hits = append(hits, searchHit{
			File: file,
			Line: tags[i].Line,
			Kind: tags[i].Kind,
			Path: tags[i].Path,
		})
	}

	if flagFormat == "json" {
		return outputJSON(hits)
	}
	formatSearchText(os.Stdout, hits)
	return nil
}
