package convolver_test

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
	"sedfit/internal/registry"
	"sedfit/internal/services/convolver"
	"sedfit/internal/store"
	"sedfit/internal/synth"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dataset synthesizes a grid plus filters under a temp dir and loads both.
func dataset(t *testing.T, dependent bool) (string, *registry.Registry, []*domain.Filter) {
	t.Helper()
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(12345))
	spec := synth.GridSpec{Name: "demo_grid", ApertureDependent: dependent}
	require.NoError(t, synth.WriteDataset(dir, rng, spec, 0))

	reg, err := registry.Load(dir)
	require.NoError(t, err)
	filters, err := store.ReadFilters(filepath.Join(dir, synth.FiltersFile))
	require.NoError(t, err)
	return dir, reg, filters
}

func TestRunSealsTable(t *testing.T) {
	dir, reg, filters := dataset(t, true)
	svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 4)

	sum, err := svc.Run(context.Background(), filters, false)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Models)
	assert.Equal(t, 15, sum.Bands)
	assert.Zero(t, sum.CoverageSkips)
	assert.NotEmpty(t, sum.RunID)

	table, err := store.LoadTable(dir)
	require.NoError(t, err)
	assert.Equal(t, reg.Fingerprint(), table.Fingerprint)
	assert.Equal(t, sum.RunID, table.RunID)
	assert.Equal(t, reg.Apertures(), table.Apertures)
	require.Len(t, table.Records, 5)
	for i, rec := range table.Records {
		assert.Equal(t, reg.Models()[i], rec.Model, "records follow model-name order")
		require.Len(t, rec.Bands, len(filters))
		for _, band := range rec.Bands {
			assert.True(t, band.Covered)
			assert.Len(t, band.Flux, len(reg.Apertures()))
		}
	}
}

func TestRunRefusesExistingTable(t *testing.T) {
	dir, reg, filters := dataset(t, false)
	svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 2)

	_, err := svc.Run(context.Background(), filters, false)
	require.NoError(t, err)

	svc = convolver.New(reg, store.NewConvolvedDir(dir), discard(), 2)
	_, err = svc.Run(context.Background(), filters, false)
	var exists *store.AlreadyExistsError
	require.ErrorAs(t, err, &exists)

	svc = convolver.New(reg, store.NewConvolvedDir(dir), discard(), 2)
	sum, err := svc.Run(context.Background(), filters, true)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Models)
}

func TestRunCountsCoverageSkips(t *testing.T) {
	dir, reg, filters := dataset(t, false)

	// A band far beyond the synthetic wavelength range is skipped for every
	// model but does not fail the run.
	far, err := domain.NewFilter("far", 1.5e4, []float64{2e4, 1e4}, []float64{1, 1})
	require.NoError(t, err)
	filters = append(filters, far)

	svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 3)
	sum, err := svc.Run(context.Background(), filters, false)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.CoverageSkips)
	assert.Equal(t, 15, sum.Bands)

	table, err := store.LoadTable(dir)
	require.NoError(t, err)
	for _, rec := range table.Records {
		band := rec.Bands[table.FilterIndex("far")]
		assert.False(t, band.Covered)
		assert.Empty(t, band.Flux)
	}
}

func TestRunRejectsEmptyFilterSet(t *testing.T) {
	dir, reg, _ := dataset(t, false)
	svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 1)

	_, err := svc.Run(context.Background(), nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no filters")

	// Nothing claimed the output, so a real run still starts cleanly.
	_, err = store.LoadTable(dir)
	require.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	dir, reg, filters := dataset(t, false)
	svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, filters, false)
	require.ErrorIs(t, err, context.Canceled)

	// The run never sealed, so the table stays unreadable.
	_, err = store.LoadTable(dir)
	require.Error(t, err)
}

func TestRunIsDeterministic(t *testing.T) {
	dir, reg, filters := dataset(t, true)

	run := func() *domain.ConvolvedTable {
		svc := convolver.New(reg, store.NewConvolvedDir(dir), discard(), 4)
		_, err := svc.Run(context.Background(), filters, true)
		require.NoError(t, err)
		table, err := store.LoadTable(dir)
		require.NoError(t, err)
		return table
	}

	first := run()
	second := run()
	require.Len(t, second.Records, len(first.Records))
	for i, rec := range first.Records {
		assert.Equal(t, rec.Model, second.Records[i].Model)
		assert.Equal(t, rec.Bands, second.Records[i].Bands)
	}
}
