package fitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sedfit/internal/domain"
	"sedfit/internal/fit"
)

// Summary reports what a fit run produced.
type Summary struct {
	RunID   string
	Sources int
	Fitted  int // sources with at least one ranked model
	NoData  int // sources without a usable band, skipped
	Empty   int // sources whose every model was excluded
	Records int // fit records written after policy trimming

	CoverageExcluded int // model exclusions summed over all sources
	DistanceExcluded int

	Duration time.Duration
}

// Service fits a batch of sources against one convolved table.
//
// High-level flow:
//   - Write the run header, then fan sources out over a worker pool.
//   - Each worker ranks the models for one source; results flow through a
//     bounded reorder buffer so the writer sees them in input order no
//     matter how the workers interleave.
//   - Sources without usable data are recorded and skipped, never aborting
//     the batch. Any other error stops the run.
type Service struct {
	fitter  *fit.Fitter
	writer  domain.FitWriter
	log     *slog.Logger
	workers int
}

// New returns a fit service writing through w. workers caps the number of
// sources fitted concurrently; values below one mean one.
func New(f *fit.Fitter, w domain.FitWriter, log *slog.Logger, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{fitter: f, writer: w, log: log, workers: workers}
}

// result carries one source's outcome back to the writer.
type result struct {
	idx    int
	fits   domain.SourceFits
	stats  fit.Stats
	noData bool
}

// Run fits every source and streams the ranked results in input order.
// Every source yields exactly one output group, empty for sources that
// could not be fitted. The caller owns the writer's Close.
func (s *Service) Run(ctx context.Context, sources []*domain.Source) (Summary, error) {
	start := time.Now()
	var sum Summary

	if len(sources) == 0 {
		return sum, fmt.Errorf("fitter: no sources to fit")
	}
	nBands := s.fitter.NumBands()
	for _, src := range sources {
		if src.NumBands() != nBands {
			return sum, fmt.Errorf("fitter: source %s has %d bands, run fits %d", src.Name, src.NumBands(), nBands)
		}
	}

	meta := s.fitter.Meta()
	cfg := s.fitter.Config()
	header := domain.RunHeader{
		RunID:       uuid.NewString(),
		Grid:        meta.Grid,
		Fingerprint: meta.Fingerprint,
		Filters:     cfg.Filters,
		Policy:      cfg.Policy.String(),
		CreatedAt:   start.UTC(),
	}
	if err := s.writer.WriteHeader(header); err != nil {
		return sum, err
	}

	s.log.Info("fit started",
		"run", header.RunID,
		"grid", header.Grid,
		"sources", len(sources),
		"policy", header.Policy,
		"workers", s.workers)

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan result, s.workers)

	// window bounds how far fitting may run ahead of writing, which in turn
	// bounds the reorder buffer. Slots are taken in input order before a
	// source is dispatched and released as its group is written.
	window := make(chan struct{}, 2*s.workers)

	g.Go(func() error {
		pool, pctx := errgroup.WithContext(gctx)
		pool.SetLimit(s.workers)
		defer close(results)
	submit:
		for i, src := range sources {
			i, src := i, src // per-iteration copies; required while go.mod targets go < 1.22
			select {
			case window <- struct{}{}:
			case <-pctx.Done():
				break submit
			}
			pool.Go(func() error {
				fits, stats, err := s.fitter.FitSource(src)
				res := result{idx: i, fits: fits, stats: stats}
				if err != nil {
					var noData *domain.NoDataError
					if !errors.As(err, &noData) {
						return fmt.Errorf("fitter: source %s: %w", src.Name, err)
					}
					res.noData = true
					res.fits = domain.SourceFits{Source: src.Name}
				}
				select {
				case results <- res:
					return nil
				case <-pctx.Done():
					return pctx.Err()
				}
			})
		}
		return pool.Wait()
	})

	g.Go(func() error {
		pending := make(map[int]result, 2*s.workers)
		next := 0
		for res := range results {
			pending[res.idx] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				sum.CoverageExcluded += r.stats.CoverageExcluded
				sum.DistanceExcluded += r.stats.DistanceExcluded
				switch {
				case r.noData:
					sum.NoData++
					s.log.Debug("source has no usable bands", "source", r.fits.Source)
				case len(r.fits.Records) == 0:
					sum.Empty++
					s.log.Debug("no model survived for source", "source", r.fits.Source)
				default:
					sum.Fitted++
					sum.Records += len(r.fits.Records)
				}
				if err := s.writer.WriteSource(r.fits); err != nil {
					return err
				}
				<-window
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return sum, err
	}

	sum.RunID = header.RunID
	sum.Sources = len(sources)
	sum.Duration = time.Since(start)

	s.log.Info("fit finished",
		"run", sum.RunID,
		"sources", sum.Sources,
		"fitted", sum.Fitted,
		"no_data", sum.NoData,
		"empty", sum.Empty,
		"records", sum.Records,
		"took", sum.Duration.Round(time.Millisecond))
	return sum, nil
}
