package synth

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedfit/internal/numeric"
	"sedfit/internal/registry"
	"sedfit/internal/store"
)

func TestGridDeterministicInSeed(t *testing.T) {
	spec := GridSpec{Name: "demo", Models: 3}

	a, pa, err := Grid(rand.New(rand.NewSource(42)), spec)
	require.NoError(t, err)
	b, pb, err := Grid(rand.New(rand.NewSource(42)), spec)
	require.NoError(t, err)
	c, _, err := Grid(rand.New(rand.NewSource(43)), spec)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, pa, pb)
	assert.NotEqual(t, a[0].Flux, c[0].Flux)
}

func TestGridShapes(t *testing.T) {
	seds, params, err := Grid(rand.New(rand.NewSource(1)), GridSpec{Name: "demo"})
	require.NoError(t, err)
	require.Len(t, seds, 5)
	require.Len(t, params, 5)

	sed := seds[0]
	assert.Equal(t, "model_0000", sed.Name)
	assert.Equal(t, 1.0, sed.Distance)
	assert.Len(t, sed.Wav, 100)
	assert.False(t, sed.ApertureDependent())
	assert.Contains(t, params[0].Params, "par1")
	assert.Contains(t, params[0].Params, "par2")
}

func TestGridApertureFluxAccumulates(t *testing.T) {
	seds, _, err := Grid(rand.New(rand.NewSource(7)), GridSpec{Name: "demo", Models: 1, ApertureDependent: true})
	require.NoError(t, err)

	sed := seds[0]
	require.True(t, sed.ApertureDependent())
	require.Len(t, sed.Apertures, 10)
	assert.True(t, numeric.StrictlyAscending(sed.Apertures))
	for j := range sed.Wav {
		for r := 1; r < len(sed.Flux); r++ {
			assert.GreaterOrEqual(t, sed.Flux[r][j], sed.Flux[r-1][j],
				"flux must grow with aperture")
		}
	}
}

func TestFiltersCoverStandardBands(t *testing.T) {
	filters, err := Filters(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, filters, 3)

	names := []string{filters[0].Name, filters[1].Name, filters[2].Name}
	assert.Equal(t, []string{"alice", "bob", "eve"}, names)
	for _, f := range filters {
		assert.InDelta(t, 1.0, numeric.Trapezoid(f.Nu, f.Response), 1e-9, f.Name)
	}
}

func TestLawIsInverseSquare(t *testing.T) {
	law := Law()
	chi, err := law.Chi(1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, chi, 1e-6)

	chi, err = law.Chi(10)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, chi, 1e-6)
}

func TestRandomSourcesShape(t *testing.T) {
	sources := RandomSources(rand.New(rand.NewSource(5)), 4, 3)
	require.Len(t, sources, 4)
	for _, src := range sources {
		assert.Len(t, src.Flags, 3)
		assert.Len(t, src.Flux, 3)
		for i := range src.Flux {
			assert.Positive(t, src.Flux[i])
			assert.Positive(t, src.Error[i])
		}
	}
}

func TestWriteDatasetProducesLoadableInputs(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(12345))
	require.NoError(t, WriteDataset(dir, rng, GridSpec{Name: "demo", Models: 4}, 3))

	r, err := registry.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())

	filters, err := store.ReadFilters(filepath.Join(dir, FiltersFile))
	require.NoError(t, err)
	assert.Len(t, filters, 3)

	law, err := store.ReadExtinction(filepath.Join(dir, ExtinctionFile))
	require.NoError(t, err)
	_, err = law.Chi(1)
	assert.NoError(t, err)

	sources, err := store.ReadSources(filepath.Join(dir, DataFile), 3)
	require.NoError(t, err)
	assert.Len(t, sources, 3)
}
