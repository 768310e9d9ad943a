package convolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sedfit/internal/convolve"
	"sedfit/internal/domain"
)

// Summary reports what a convolution run produced.
type Summary struct {
	RunID         string
	Models        int
	Bands         int // covered bands written across all models
	CoverageSkips int // bands left empty because a filter fell off a model grid
	Duration      time.Duration
}

// Service walks a model grid, convolves each model against the filter set and
// persists the records. Models are processed by a bounded worker pool; the
// store serializes writes.
type Service struct {
	provider domain.ModelProvider
	store    domain.ConvolvedStore
	log      *slog.Logger
	workers  int
}

// New returns a convolver over the given grid and store. workers caps the
// number of models convolved concurrently; values below one mean one.
func New(provider domain.ModelProvider, store domain.ConvolvedStore, log *slog.Logger, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{provider: provider, store: store, log: log, workers: workers}
}

// Run convolves the whole grid and seals the table. An existing table fails
// with *store.AlreadyExistsError unless overwrite is set. Filters that do not
// cover a model are skipped per band, logged and counted; every other error
// aborts the run and leaves the table unsealed.
func (s *Service) Run(ctx context.Context, filters []*domain.Filter, overwrite bool) (Summary, error) {
	start := time.Now()
	var sum Summary

	if len(filters) == 0 {
		return sum, fmt.Errorf("convolver: no filters to convolve")
	}
	models := s.provider.Models()
	if len(models) == 0 {
		return sum, fmt.Errorf("convolver: grid %s has no models", s.provider.GridName())
	}

	meta := domain.TableMeta{
		Grid:        s.provider.GridName(),
		Fingerprint: s.provider.Fingerprint(),
		RunID:       uuid.NewString(),
		Filters:     make([]domain.FilterInfo, len(filters)),
		Apertures:   s.provider.Apertures(),
		CreatedAt:   start.UTC(),
	}
	for i, f := range filters {
		meta.Filters[i] = domain.FilterInfo{Name: f.Name, Wavelength: f.Wavelength}
	}
	if err := s.store.Begin(meta, overwrite); err != nil {
		return sum, err
	}

	s.log.Info("convolution started",
		"run", meta.RunID,
		"grid", meta.Grid,
		"models", len(models),
		"filters", len(filters),
		"workers", s.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	counts := newCounter()
	for _, name := range models {
		name := name // per-iteration copy; required while go.mod targets go < 1.22
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sed, err := s.provider.SED(name)
			if err != nil {
				return fmt.Errorf("convolver: load model %s: %w", name, err)
			}
			rec, skipped, err := convolve.Model(sed, filters)
			if err != nil {
				return fmt.Errorf("convolver: model %s: %w", name, err)
			}
			for _, skip := range skipped {
				s.log.Debug("filter does not cover model",
					"model", skip.Model,
					"filter", skip.Filter)
			}
			if err := s.store.Put(rec); err != nil {
				return err
			}
			counts.add(len(filters)-len(skipped), len(skipped))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	if err := s.store.Finish(); err != nil {
		return sum, err
	}

	sum.RunID = meta.RunID
	sum.Models = len(models)
	sum.Bands, sum.CoverageSkips = counts.totals()
	sum.Duration = time.Since(start)

	s.log.Info("convolution finished",
		"run", sum.RunID,
		"models", sum.Models,
		"bands", sum.Bands,
		"coverage_skips", sum.CoverageSkips,
		"took", sum.Duration.Round(time.Millisecond))
	return sum, nil
}
