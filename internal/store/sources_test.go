package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedfit/internal/domain"
	"sedfit/internal/store"
)

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSources(t *testing.T) {
	path := writeData(t, `# two sources, three bands
source_1 0.0 0.0 1 1 1 0.2 0.1 1.3 0.2 1.5 0.3

source_2 0.0 0.0 1 0 3 0.2 0.05 1.2 0.1 1.8 0.3
`)
	sources, err := store.ReadSources(path, 3)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	s1 := sources[0]
	assert.Equal(t, "source_1", s1.Name)
	assert.Equal(t, []domain.Flag{domain.FlagValid, domain.FlagValid, domain.FlagValid}, s1.Flags)
	assert.Equal(t, []float64{0.2, 1.3, 1.5}, s1.Flux)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, s1.Error)

	s2 := sources[1]
	assert.Equal(t, []domain.Flag{domain.FlagValid, domain.FlagIgnore, domain.FlagUpperLimit}, s2.Flags)
	assert.Equal(t, 2, s2.NumUsable())
}

func TestReadSourcesRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"short row":    "s1 0.0 0.0 1 1 0.2 0.1 1.3 0.2\n",
		"bad flag":     "s1 0.0 0.0 1 7 1 0.2 0.1 1.3 0.2 1.5 0.3\n",
		"bad x":        "s1 zero 0.0 1 1 1 0.2 0.1 1.3 0.2 1.5 0.3\n",
		"bad flux":     "s1 0.0 0.0 1 1 1 x 0.1 1.3 0.2 1.5 0.3\n",
		"flag as text": "s1 0.0 0.0 one 1 1 0.2 0.1 1.3 0.2 1.5 0.3\n",
	}
	for name, content := range cases {
		_, err := store.ReadSources(writeData(t, content), 3)
		assert.Error(t, err, name)
		assert.ErrorContains(t, err, "line 1", name)
	}
}

func TestReadSourcesMissingFile(t *testing.T) {
	_, err := store.ReadSources(filepath.Join(t.TempDir(), "nope.txt"), 3)
	assert.Error(t, err)
}

func TestReadSourcesEmptyFileIsEmptySet(t *testing.T) {
	sources, err := store.ReadSources(writeData(t, "# only comments\n"), 3)
	require.NoError(t, err)
	assert.Empty(t, sources)
}
