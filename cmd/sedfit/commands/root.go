package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sedfit/internal/app"
)

var (
	logLevel string
	logJSON  bool
	logger   *slog.Logger
)

// Execute runs the sedfit CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "sedfit",
		Short: "Convolve SED model grids and fit them to observed sources",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.NewLogger(os.Stderr, logLevel, logJSON)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON lines instead of text")

	root.AddCommand(convolveCmd(), fitCmd(), inspectCmd())
	return root.ExecuteContext(ctx)
}
