package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"sedfit/internal/store"
)

// inspect --models DIR: show what a sealed convolved table contains.
func inspectCmd() *cobra.Command {
	var (
		models string
		model  string
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a sealed convolved table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := store.LoadTable(models)
			if err != nil {
				return err
			}

			fmt.Printf("grid:        %s\n", table.Grid)
			fmt.Printf("fingerprint: %s\n", table.Fingerprint)
			fmt.Printf("run:         %s (%s)\n", table.RunID, table.CreatedAt.Format(time.RFC3339))
			names := make([]string, len(table.Filters))
			for i, f := range table.Filters {
				names[i] = fmt.Sprintf("%s (%.4g um)", f.Name, f.Wavelength)
			}
			fmt.Printf("filters:     %s\n", strings.Join(names, ", "))
			if n := len(table.Apertures); n > 0 {
				fmt.Printf("apertures:   %d from %.4g to %.4g AU\n",
					n, table.Apertures[0], table.Apertures[n-1])
			} else {
				fmt.Printf("apertures:   independent\n")
			}
			fmt.Printf("models:      %d\n", len(table.Records))

			if !raw {
				return nil
			}
			rec := table.Records[0]
			if model != "" {
				rec = nil
				for _, r := range table.Records {
					if r.Model == model {
						rec = r
						break
					}
				}
				if rec == nil {
					return fmt.Errorf("model %s not in table", model)
				}
			}
			spew.Dump(rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&models, "models", "", "model grid directory with a convolved table")
	cmd.Flags().StringVar(&model, "model", "", "model to dump with --raw (default first)")
	cmd.Flags().BoolVar(&raw, "raw", false, "dump one full record")
	_ = cmd.MarkFlagRequired("models")
	return cmd
}
