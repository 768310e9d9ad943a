package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedfit/internal/domain"
	"sedfit/internal/numeric"
	"sedfit/internal/store"
)

func TestFiltersRoundTrip(t *testing.T) {
	wav := numeric.Reverse(numeric.Linspace(10, 15, 30))
	resp := make([]float64, len(wav))
	for i := range resp {
		resp[i] = 1 + float64(i%3)
	}
	bob, err := domain.NewFilter("bob", 12, wav, resp)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, store.WriteFilters(path, []*domain.Filter{bob}))

	got, err := store.ReadFilters(path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	f := got[0]
	assert.Equal(t, "bob", f.Name)
	assert.Equal(t, 12.0, f.Wavelength)
	assert.True(t, numeric.StrictlyAscending(f.Nu))
	// ReadFilters normalizes.
	assert.InDelta(t, 1.0, numeric.Trapezoid(f.Nu, f.Response), 1e-9)
}

func TestReadFiltersRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o644))
	_, err := store.ReadFilters(empty)
	assert.ErrorContains(t, err, "no filters")

	dup := filepath.Join(dir, "dup.json")
	content := `[
  {"name": "a", "wavelength": 7, "wav": [10, 5], "response": [1, 1]},
  {"name": "a", "wavelength": 7, "wav": [10, 5], "response": [1, 1]}
]`
	require.NoError(t, os.WriteFile(dup, []byte(content), 0o644))
	_, err = store.ReadFilters(dup)
	assert.ErrorContains(t, err, "duplicate")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"name": "a", "wavelength": -1, "wav": [10, 5], "response": [1, 1]}]`), 0o644))
	_, err = store.ReadFilters(bad)
	assert.Error(t, err)
}

func TestReadExtinction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extinction.txt")
	content := `# wav chi
1.0 1.0
2.0 0.5
4.0 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	law, err := store.ReadExtinction(path)
	require.NoError(t, err)

	chi, err := law.Chi(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, chi, 1e-12)
}

func TestReadExtinctionRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	threeCols := filepath.Join(dir, "three.txt")
	require.NoError(t, os.WriteFile(threeCols, []byte("1.0 1.0 9\n"), 0o644))
	_, err := store.ReadExtinction(threeCols)
	assert.ErrorContains(t, err, "want 2")

	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("1.0 1.0\n"), 0o644))
	_, err = store.ReadExtinction(short)
	assert.Error(t, err, "single control point")
}
