package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sedfit/internal/domain"
)

// Create initializes a grid directory: it writes grid.yaml and makes the SED
// subdirectory. A directory that already holds a grid is refused.
func Create(dir string, meta Meta) error {
	if meta.Name == "" {
		return fmt.Errorf("registry: grid needs a name")
	}
	if err := checkUnits(meta.Units); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, metaFile)); err == nil {
		return fmt.Errorf("registry: %s already holds grid metadata", dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, sedsDir), 0o755); err != nil {
		return fmt.Errorf("registry: create %s: %w", dir, err)
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, metaFile), raw, 0o644)
}

// WriteSED stores one model SED under seds/.
func WriteSED(dir string, sed *domain.SED) error {
	sf := sedFile{
		Name:      sed.Name,
		Distance:  sed.Distance,
		Wav:       sed.Wav,
		Apertures: sed.Apertures,
		Flux:      sed.Flux,
		Error:     sed.Error,
	}
	return writeJSON(filepath.Join(dir, sedsDir, sed.Name+sedSuffix), sf, 0o644)
}

// WriteParameters stores the full parameter table.
func WriteParameters(dir string, rows []ParameterRow) error {
	return writeJSON(filepath.Join(dir, paramsFile), rows, 0o644)
}

// readJSON reads path into out; unlike the convolved store there is no
// missing-file tolerance here, a grid without its files is broken.
func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// writeJSON writes JSON via a temp file then rename.
func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, b, mode)
}

func writeFile(path string, b []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
