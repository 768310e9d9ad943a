package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sedfit/internal/app"
)

// convolve --models DIR --filters FILE: build the convolved table.
func convolveCmd() *cobra.Command {
	var (
		models    string
		filters   string
		workers   int
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "convolve",
		Short: "Convolve every model of a grid with a filter set",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire, err := app.WireConvolution(app.Config{
				GridDir: models,
				Filters: filters,
				Workers: workers,
				Log:     logger,
			})
			if err != nil {
				return err
			}

			sum, err := wire.Service.Run(cmd.Context(), wire.Filters, overwrite)
			if err != nil {
				return err
			}
			fmt.Printf("convolved %d models into %d bands (%d coverage skips) in %s\n",
				sum.Models, sum.Bands, sum.CoverageSkips, sum.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&models, "models", "", "model grid directory")
	cmd.Flags().StringVar(&filters, "filters", "", "filter set JSON file")
	cmd.Flags().IntVar(&workers, "workers", 0, "models convolved concurrently (default one per CPU)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing convolved table")
	_ = cmd.MarkFlagRequired("models")
	_ = cmd.MarkFlagRequired("filters")
	return cmd
}
