// Package registry loads model grids from disk and indexes them in memory.
//
// A grid directory holds grid.yaml (metadata), parameters.json (one row per
// model) and seds/<name>_sed.json (one SED per model). Load reads everything
// once and validates cross-references; lookups never touch storage again.
package registry

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"sedfit/internal/domain"
	"sedfit/internal/units"
)

const (
	metaFile   = "grid.yaml"
	paramsFile = "parameters.json"
	sedsDir    = "seds"
	sedSuffix  = "_sed.json"
)

// Meta is the grid.yaml content.
type Meta struct {
	Name              string     `yaml:"name"`
	Version           int        `yaml:"version"`
	ApertureDependent bool       `yaml:"aperture_dependent"`
	Units             *MetaUnits `yaml:"units,omitempty"`
}

// MetaUnits declares the units a grid is tabulated in. Load rejects any
// declaration that deviates from the module's conventions; an absent block
// means the conventions are assumed.
type MetaUnits struct {
	Wavelength string `yaml:"wavelength,omitempty"`
	Flux       string `yaml:"flux,omitempty"`
	Aperture   string `yaml:"aperture,omitempty"`
}

// ParameterRow is one parameters.json entry: a model name plus its named
// scalar parameters.
type ParameterRow struct {
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params,omitempty"`
}

// sedFile is the on-disk SED layout. Frequencies are not stored; the domain
// constructor derives them and canonicalizes the ordering on load.
type sedFile struct {
	Name      string      `json:"name"`
	Distance  float64     `json:"distance"`
	Wav       []float64   `json:"wav"`
	Apertures []float64   `json:"apertures,omitempty"`
	Flux      [][]float64 `json:"flux"`
	Error     [][]float64 `json:"error,omitempty"`
}

// Registry is a fully loaded model grid.
type Registry struct {
	dir         string
	meta        Meta
	names       []string // sorted
	params      map[string]ParameterRow
	seds        map[string]*domain.SED
	apertures   []float64
	fingerprint string
}

// Compile-time interface checks.
var _ domain.ModelProvider = (*Registry)(nil)

// Load reads a grid directory and builds the index. It fails on a missing or
// empty parameter table, a parameter row without its SED file, an orphan SED
// file, a name mismatch between row and file, and aperture layouts that
// contradict the grid metadata.
func Load(dir string) (*Registry, error) {
	r := &Registry{
		dir:    dir,
		params: make(map[string]ParameterRow),
		seds:   make(map[string]*domain.SED),
	}

	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", metaFile, err)
	}
	if err := yaml.Unmarshal(raw, &r.meta); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", metaFile, err)
	}
	if r.meta.Name == "" {
		return nil, fmt.Errorf("registry: %s has no grid name", metaFile)
	}
	if err := checkUnits(r.meta.Units); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", metaFile, err)
	}

	var rows []ParameterRow
	if err := readJSON(filepath.Join(dir, paramsFile), &rows); err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", paramsFile, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registry: grid %s has no models", r.meta.Name)
	}

	for _, row := range rows {
		if row.Name == "" {
			return nil, fmt.Errorf("registry: parameter row without a model name")
		}
		if _, dup := r.params[row.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate model %s in %s", row.Name, paramsFile)
		}
		sed, err := loadSED(dir, row.Name)
		if err != nil {
			return nil, err
		}
		r.params[row.Name] = row
		r.seds[row.Name] = sed
		r.names = append(r.names, row.Name)
	}
	sort.Strings(r.names)

	if err := r.checkOrphans(); err != nil {
		return nil, err
	}
	if err := r.checkApertures(); err != nil {
		return nil, err
	}
	r.fingerprint = fingerprint(r.meta, r.names)
	return r, nil
}

func loadSED(dir, name string) (*domain.SED, error) {
	path := filepath.Join(dir, sedsDir, name+sedSuffix)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("registry: model %s has parameters but no SED file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read SED %s: %w", name, err)
	}
	var sf sedFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("registry: parse SED %s: %w", name, err)
	}
	if sf.Name != name {
		return nil, fmt.Errorf("registry: SED file for %s names itself %s", name, sf.Name)
	}
	sed, err := domain.NewSED(sf.Name, sf.Distance, sf.Wav, sf.Apertures, sf.Flux, sf.Error)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return sed, nil
}

func (r *Registry) checkOrphans() error {
	entries, err := os.ReadDir(filepath.Join(r.dir, sedsDir))
	if err != nil {
		return fmt.Errorf("registry: read %s: %w", sedsDir, err)
	}
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), sedSuffix)
		if !ok {
			continue
		}
		if _, known := r.params[name]; !known {
			return fmt.Errorf("registry: SED %s not in parameter table", name)
		}
	}
	return nil
}

func (r *Registry) checkApertures() error {
	for _, name := range r.names {
		sed := r.seds[name]
		if sed.ApertureDependent() != r.meta.ApertureDependent {
			return fmt.Errorf("registry: model %s contradicts aperture_dependent=%t", name, r.meta.ApertureDependent)
		}
		if !r.meta.ApertureDependent {
			continue
		}
		if r.apertures == nil {
			r.apertures = sed.Apertures
			continue
		}
		if !equalFloats(r.apertures, sed.Apertures) {
			return fmt.Errorf("registry: model %s has a different aperture list", name)
		}
	}
	return nil
}

// GridName returns the grid's declared name.
func (r *Registry) GridName() string { return r.meta.Name }

// Version returns the grid's declared version.
func (r *Registry) Version() int { return r.meta.Version }

// ApertureDependent reports whether the grid tabulates flux per aperture.
func (r *Registry) ApertureDependent() bool { return r.meta.ApertureDependent }

// Apertures returns the shared aperture list (nil for independent grids).
func (r *Registry) Apertures() []float64 { return r.apertures }

// Fingerprint identifies this grid build.
func (r *Registry) Fingerprint() string { return r.fingerprint }

// Len returns the number of models.
func (r *Registry) Len() int { return len(r.names) }

// Models lists model names in sorted order.
func (r *Registry) Models() []string { return r.names }

// SED returns the loaded SED of one model.
func (r *Registry) SED(name string) (*domain.SED, error) {
	sed, ok := r.seds[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown model %s", name)
	}
	return sed, nil
}

// Parameters returns the parameter row of one model.
func (r *Registry) Parameters(name string) (ParameterRow, bool) {
	row, ok := r.params[name]
	return row, ok
}

// fingerprint hashes the identity of a grid build: name, version, aperture
// mode and the sorted model names.
func fingerprint(meta Meta, sortedNames []string) string {
	h, _ := blake2b.New256(nil)
	io.WriteString(h, meta.Name)
	fmt.Fprintf(h, "\x00%d\x00%t\x00", meta.Version, meta.ApertureDependent)
	for _, n := range sortedNames {
		io.WriteString(h, n)
		io.WriteString(h, "\x00")
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checkUnits(u *MetaUnits) error {
	if u == nil {
		return nil
	}
	if u.Wavelength != "" {
		if err := units.CheckUnit("wavelength", u.Wavelength, units.UnitWavelength); err != nil {
			return err
		}
	}
	if u.Flux != "" {
		if err := units.CheckUnit("flux", u.Flux, units.UnitFlux); err != nil {
			return err
		}
	}
	if u.Aperture != "" {
		if err := units.CheckUnit("aperture", u.Aperture, units.UnitAperture); err != nil {
			return err
		}
	}
	return nil
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
