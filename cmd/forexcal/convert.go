package main

import (
	"fmt"

	"github.com/aluiziolira/go-scrape-forex/convert"
	"github.com/spf13/cobra"
)

const defaultCatalogFile = "forex_factory_catalog.csv"

func newConvertCmd() *cobra.Command {
	var (
		output  string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "convert [csv-file]",
		Short: "Convert the catalog CSV to a JSON array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := defaultCatalogFile
			if len(args) == 1 {
				input = args[0]
			}

			stats, err := convert.Convert(input, output, !compact)
			if err != nil {
				return err
			}

			fmt.Printf("Converted %s -> %s\n", input, stats.OutputPath)
			fmt.Printf("  Input:   %d bytes\n", stats.InputBytes)
			fmt.Printf("  Output:  %d bytes\n", stats.OutputBytes)
			fmt.Printf("  Records: %d\n", stats.Records)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON file path (default: input with .json extension)")
	cmd.Flags().BoolVar(&compact, "compact", false, "Output compact JSON without indentation")

	return cmd
}
