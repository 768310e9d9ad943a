package fitter_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedfit/internal/domain"
	"sedfit/internal/extinction"
	"sedfit/internal/fit"
	"sedfit/internal/registry"
	"sedfit/internal/services/convolver"
	"sedfit/internal/services/fitter"
	"sedfit/internal/store"
	"sedfit/internal/synth"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipeline synthesizes a dataset, convolves it and returns the sealed table
// with its extinction law. Everything derives from the seed.
func pipeline(t *testing.T, seed int64, dependent bool) (*domain.ConvolvedTable, *extinction.Law) {
	t.Helper()
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(seed))
	spec := synth.GridSpec{Name: "demo_grid", ApertureDependent: dependent}
	require.NoError(t, synth.WriteDataset(dir, rng, spec, 0))

	reg, err := registry.Load(dir)
	require.NoError(t, err)
	filters, err := store.ReadFilters(filepath.Join(dir, synth.FiltersFile))
	require.NoError(t, err)
	law, err := store.ReadExtinction(filepath.Join(dir, synth.ExtinctionFile))
	require.NoError(t, err)

	conv := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 4)
	_, err = conv.Run(context.Background(), filters, false)
	require.NoError(t, err)

	table, err := store.LoadTable(dir)
	require.NoError(t, err)
	return table, law
}

// baseConfig fits the bands in a different order than the table stores them.
func baseConfig() fit.Config {
	return fit.Config{
		Filters:     []string{"bob", "alice", "eve"},
		DistanceMin: 1,
		DistanceMax: 2,
		AvMin:       0,
		AvMax:       0.1,
		AvStep:      0.01,
	}
}

// observed matches the band order of baseConfig: bob, alice, eve.
func observed() []*domain.Source {
	valid := []domain.Flag{domain.FlagValid, domain.FlagValid, domain.FlagValid}
	return []*domain.Source{
		{Name: "source_1", Flags: valid, Flux: []float64{0.2, 1.3, 1.5}, Error: []float64{0.1, 0.2, 0.3}},
		{Name: "source_2", Flags: valid, Flux: []float64{0.2, 1.2, 1.8}, Error: []float64{0.05, 0.1, 0.3}},
	}
}

// memWriter collects everything written to it.
type memWriter struct {
	header  domain.RunHeader
	haveHdr bool
	groups  []domain.SourceFits
	closed  bool
}

func (w *memWriter) WriteHeader(h domain.RunHeader) error {
	w.header = h
	w.haveHdr = true
	return nil
}

func (w *memWriter) WriteSource(sf domain.SourceFits) error {
	w.groups = append(w.groups, sf)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

var _ domain.FitWriter = (*memWriter)(nil)

func TestRunEndToEnd(t *testing.T) {
	table, law := pipeline(t, 12345, false)

	f, err := fit.New(table, law, baseConfig())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "fits.jsonl")
	w, err := store.NewJSONLWriter(out)
	require.NoError(t, err)

	svc := fitter.New(f, w, discard(), 4)
	sum, err := svc.Run(context.Background(), observed())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 2, sum.Sources)
	assert.Equal(t, 2, sum.Fitted)
	assert.Zero(t, sum.NoData)
	assert.Equal(t, 10, sum.Records, "five models per source, nothing trimmed")

	header, groups, err := store.ReadResults(out)
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, header.RunID)
	assert.Equal(t, table.Fingerprint, header.Fingerprint)
	assert.Equal(t, []string{"bob", "alice", "eve"}, header.Filters)
	assert.Equal(t, "all", header.Policy)

	require.Len(t, groups, 2)
	assert.Equal(t, "source_1", groups[0].Source)
	assert.Equal(t, "source_2", groups[1].Source)
	for _, g := range groups {
		require.Len(t, g.Records, 5)
		for i, rec := range g.Records {
			assert.Equal(t, i+1, rec.Rank)
			assert.GreaterOrEqual(t, rec.Chi2, 0.0)
			assert.GreaterOrEqual(t, rec.Av, 0.0)
			assert.LessOrEqual(t, rec.Av, 0.1)
			assert.Greater(t, rec.Scale, 0.0)
			assert.GreaterOrEqual(t, rec.Distance, 1.0)
			assert.LessOrEqual(t, rec.Distance, 2.0)
			if i > 0 {
				assert.GreaterOrEqual(t, rec.Chi2, g.Records[i-1].Chi2, "ranks follow ascending chi2")
			}
		}
	}
}

func TestRunEndToEndApertureDependent(t *testing.T) {
	run := func() (fitter.Summary, []domain.SourceFits) {
		table, law := pipeline(t, 12345, true)
		require.Len(t, table.Apertures, 10)
		for _, rec := range table.Records {
			for _, band := range rec.Bands {
				require.Len(t, band.Flux, 10)
				require.Len(t, band.Error, 10)
			}
		}

		f, err := fit.New(table, law, baseConfig())
		require.NoError(t, err)
		w := &memWriter{}
		svc := fitter.New(f, w, discard(), 4)
		sum, err := svc.Run(context.Background(), observed())
		require.NoError(t, err)
		return sum, w.groups
	}

	sum, groups := run()
	assert.Equal(t, 2, sum.Fitted)
	for _, g := range groups {
		require.Len(t, g.Records, 5)
		for _, rec := range g.Records {
			assert.GreaterOrEqual(t, rec.Aperture, 0)
			assert.Less(t, rec.Aperture, 10)
		}
	}

	// The same seed rebuilds the same pipeline, so the chosen apertures and
	// every other field must come back identical.
	_, again := run()
	require.Len(t, again, len(groups))
	for i := range groups {
		assert.Equal(t, groups[i].Records, again[i].Records)
	}
}

func TestRunTrimsByPolicy(t *testing.T) {
	table, law := pipeline(t, 12345, false)

	cfg := baseConfig()
	var err error
	cfg.Policy, err = fit.ParsePolicy("top:3")
	require.NoError(t, err)

	f, err := fit.New(table, law, cfg)
	require.NoError(t, err)
	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 2)
	sum, err := svc.Run(context.Background(), observed())
	require.NoError(t, err)

	assert.Equal(t, "top:3", w.header.Policy)
	assert.Equal(t, 6, sum.Records)
	for _, g := range w.groups {
		assert.Len(t, g.Records, 3)
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	table, law := pipeline(t, 99, false)

	f, err := fit.New(table, law, baseConfig())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	sources := synth.RandomSources(rng, 40, 3)
	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 8)
	sum, err := svc.Run(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 40, sum.Sources)
	require.Len(t, w.groups, 40, "one group per source")
	for i, g := range w.groups {
		assert.Equal(t, sources[i].Name, g.Source)
	}
	assert.False(t, w.closed, "the run must leave Close to the caller")
}

func TestRunSkipsSourcesWithoutData(t *testing.T) {
	table, law := pipeline(t, 12345, false)

	f, err := fit.New(table, law, baseConfig())
	require.NoError(t, err)

	blank := &domain.Source{
		Name:  "blank",
		Flags: []domain.Flag{domain.FlagIgnore, domain.FlagIgnore, domain.FlagIgnore},
		Flux:  []float64{1, 1, 1},
		Error: []float64{1, 1, 1},
	}
	obs := observed()
	sources := []*domain.Source{obs[0], blank, obs[1]}

	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 4)
	sum, err := svc.Run(context.Background(), sources)
	require.NoError(t, err, "a source without data must not abort the batch")

	assert.Equal(t, 3, sum.Sources)
	assert.Equal(t, 2, sum.Fitted)
	assert.Equal(t, 1, sum.NoData)

	require.Len(t, w.groups, 3)
	assert.Equal(t, "blank", w.groups[1].Source)
	assert.Empty(t, w.groups[1].Records)
	assert.NotEmpty(t, w.groups[0].Records)
	assert.NotEmpty(t, w.groups[2].Records)
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	table, law := pipeline(t, 12345, false)
	f, err := fit.New(table, law, baseConfig())
	require.NoError(t, err)

	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 2)
	_, err = svc.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
	assert.False(t, w.haveHdr, "nothing may be written for a rejected batch")
}

func TestRunRejectsBandMismatch(t *testing.T) {
	table, law := pipeline(t, 12345, false)
	f, err := fit.New(table, law, baseConfig())
	require.NoError(t, err)

	bad := &domain.Source{
		Name:  "narrow",
		Flags: []domain.Flag{domain.FlagValid},
		Flux:  []float64{1},
		Error: []float64{0.1},
	}
	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 2)
	_, err = svc.Run(context.Background(), []*domain.Source{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narrow")
	assert.False(t, w.haveHdr)
}

func TestRunSingleAvPointMatchesDirectScore(t *testing.T) {
	table, law := pipeline(t, 12345, false)

	cfg := baseConfig()
	cfg.AvMin, cfg.AvMax, cfg.AvStep = 0.05, 0.05, 0

	f, err := fit.New(table, law, cfg)
	require.NoError(t, err)
	require.Equal(t, []float64{0.05}, f.Avs())

	w := &memWriter{}
	svc := fitter.New(f, w, discard(), 1)
	_, err = svc.Run(context.Background(), observed())
	require.NoError(t, err)
	for _, g := range w.groups {
		for _, rec := range g.Records {
			assert.Equal(t, 0.05, rec.Av)
		}
	}
}
