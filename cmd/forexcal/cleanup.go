package main

import (
	"fmt"

	"github.com/aluiziolira/go-scrape-forex/catalog"
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup [csv-file]",
		Short: "Remove duplicate and date-only rows from the catalog CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultCatalogFile
			if len(args) == 1 {
				path = args[0]
			}

			removed, err := catalog.Cleanup(path)
			if err != nil {
				return err
			}

			if removed == 0 {
				fmt.Printf("%s is already clean\n", path)
			} else {
				fmt.Printf("Removed %d lines from %s\n", removed, path)
			}
			return nil
		},
	}
	return cmd
}
