package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sedfit/internal/app"
	"sedfit/internal/domain"
	"sedfit/internal/fit"
	"sedfit/internal/store"
)

// fit --models DIR --data FILE --output FILE: rank models per source.
func fitCmd() *cobra.Command {
	var (
		models       string
		data         string
		output       string
		settingsPath string
		databaseURL  string
		extinction   string
		extEdge      float64
		filters      []string
		dMin, dMax   float64
		avMin, avMax float64
		avStep       float64
		policy       string
		workers      int
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a convolved model grid to observed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			fcfg := fit.Config{
				Filters:     filters,
				DistanceMin: dMin,
				DistanceMax: dMax,
				AvMin:       avMin,
				AvMax:       avMax,
				AvStep:      avStep,
			}

			// A settings file fills in whatever was not given explicitly.
			if settingsPath != "" {
				s, err := loadSettings(settingsPath)
				if err != nil {
					return err
				}
				changed := cmd.Flags().Changed
				if !changed("filters") && len(s.Filters) > 0 {
					fcfg.Filters = s.Filters
				}
				if !changed("distance-min") {
					fcfg.DistanceMin = s.Distance.Min
				}
				if !changed("distance-max") {
					fcfg.DistanceMax = s.Distance.Max
				}
				if !changed("av-min") {
					fcfg.AvMin = s.Av.Min
				}
				if !changed("av-max") {
					fcfg.AvMax = s.Av.Max
				}
				if !changed("av-step") {
					fcfg.AvStep = s.Av.Step
				}
				if !changed("policy") && s.Policy != "" {
					policy = s.Policy
				}
				if !changed("extinction") && s.Extinction != "" {
					extinction = s.Extinction
				}
				if !changed("extinction-edge") && s.ExtinctionEdge > 0 {
					extEdge = s.ExtinctionEdge
				}
			}
			var err error
			fcfg.Policy, err = fit.ParsePolicy(policy)
			if err != nil {
				return err
			}
			if extinction == "" {
				return fmt.Errorf("extinction law required (--extinction or settings file)")
			}

			cfg := app.Config{
				GridDir:        models,
				Extinction:     extinction,
				ExtinctionEdge: extEdge,
				Workers:        workers,
				Log:            logger,
			}
			wire, err := app.WireFitting(cfg, fcfg)
			if err != nil {
				return err
			}
			sources, err := store.ReadSources(data, len(fcfg.Filters))
			if err != nil {
				return err
			}

			jw, err := store.NewJSONLWriter(output)
			if err != nil {
				return err
			}
			var sw *store.SQLWriter
			var out domain.FitWriter = jw
			if databaseURL != "" {
				sw, err = store.NewSQLWriter(databaseURL)
				if err != nil {
					jw.Abort()
					return err
				}
				out = store.MultiWriter(jw, sw)
			}

			sum, err := wire.Fit(cfg, out).Run(cmd.Context(), sources)
			if err != nil {
				jw.Abort()
				if sw != nil {
					_ = sw.Close()
				}
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			fmt.Printf("fitted %d of %d sources (%d without data, %d unmatched), %d records in %s\n",
				sum.Fitted, sum.Sources, sum.NoData, sum.Empty, sum.Records,
				sum.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&models, "models", "", "model grid directory with a convolved table")
	cmd.Flags().StringVar(&data, "data", "", "observed source table")
	cmd.Flags().StringVar(&output, "output", "", "fit results file (JSON lines)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "YAML settings file; explicit flags win")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "also write results to this PostgreSQL DSN")
	cmd.Flags().StringVar(&extinction, "extinction", "", "extinction law table")
	cmd.Flags().Float64Var(&extEdge, "extinction-edge", 0, "law edge tolerance factor (default 10)")
	cmd.Flags().StringSliceVar(&filters, "filters", nil, "band order to fit, matching the data columns")
	cmd.Flags().Float64Var(&dMin, "distance-min", 0, "minimum source distance in kpc")
	cmd.Flags().Float64Var(&dMax, "distance-max", 0, "maximum source distance in kpc")
	cmd.Flags().Float64Var(&avMin, "av-min", 0, "minimum trial extinction in magnitudes")
	cmd.Flags().Float64Var(&avMax, "av-max", 0, "maximum trial extinction in magnitudes")
	cmd.Flags().Float64Var(&avStep, "av-step", 0, "extinction grid step, zero for endpoints only")
	cmd.Flags().StringVar(&policy, "policy", "all", "records kept per source: all, top:N, chi2:V or delta:V")
	cmd.Flags().IntVar(&workers, "workers", 0, "sources fitted concurrently (default one per CPU)")
	_ = cmd.MarkFlagRequired("models")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
