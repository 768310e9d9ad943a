// Package synth generates seeded synthetic datasets: model grids, filter
// curves, an extinction law and observation tables. The generators drive the
// sedgen binary and the end-to-end tests; everything is deterministic in the
// given random source.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"sedfit/internal/domain"
	"sedfit/internal/extinction"
	"sedfit/internal/numeric"
	"sedfit/internal/registry"
	"sedfit/internal/store"
	"sedfit/internal/units"
)

// GridSpec describes a synthetic model grid.
type GridSpec struct {
	Name              string
	Models            int
	ApertureDependent bool
	Apertures         int     // rows per model when aperture dependent
	Distance          float64 // reference distance, kpc
	Params            []string
}

func (s *GridSpec) defaults() {
	if s.Models <= 0 {
		s.Models = 5
	}
	if s.Apertures <= 0 {
		s.Apertures = 10
	}
	if s.Distance <= 0 {
		s.Distance = 1
	}
	if s.Params == nil {
		s.Params = []string{"par1", "par2"}
	}
}

// Grid generates model SEDs with their parameter rows. Spectral grids span
// 0.01..1000 micron; aperture-dependent fluxes accumulate over rows so larger
// apertures always capture more flux.
func Grid(rng *rand.Rand, spec GridSpec) ([]*domain.SED, []registry.ParameterRow, error) {
	spec.defaults()
	if spec.Name == "" {
		return nil, nil, fmt.Errorf("synth: grid needs a name")
	}

	wav := numeric.Logspace(-2, 3, 100)
	var apertures []float64
	rows := 1
	if spec.ApertureDependent {
		apertures = numeric.Logspace(1, 6, spec.Apertures)
		rows = spec.Apertures
	}

	seds := make([]*domain.SED, 0, spec.Models)
	params := make([]registry.ParameterRow, 0, spec.Models)
	for i := 0; i < spec.Models; i++ {
		name := fmt.Sprintf("model_%04d", i)

		flux := make([][]float64, rows)
		errs := make([][]float64, rows)
		for r := 0; r < rows; r++ {
			flux[r] = make([]float64, len(wav))
			errs[r] = make([]float64, len(wav))
			for j := range wav {
				if spec.ApertureDependent {
					flux[r][j] = rng.Float64()
					if r > 0 {
						flux[r][j] += flux[r-1][j]
					}
				} else {
					flux[r][j] = 1 + rng.Float64()
				}
				errs[r][j] = flux[r][j] * rng.Float64() / 100
			}
		}
		sed, err := domain.NewSED(name, spec.Distance, wav, apertures, flux, errs)
		if err != nil {
			return nil, nil, fmt.Errorf("synth: %w", err)
		}
		seds = append(seds, sed)

		row := registry.ParameterRow{Name: name, Params: make(map[string]float64, len(spec.Params))}
		for _, p := range spec.Params {
			row.Params[p] = rng.Float64()
		}
		params = append(params, row)
	}
	return seds, params, nil
}

// Filters generates the three standard bands with random response curves:
// alice (1..5 micron), bob (10..15 micron) and eve (15..25 micron).
func Filters(rng *rand.Rand) ([]*domain.Filter, error) {
	specs := []struct {
		name          string
		pivot, lo, hi float64
	}{
		{"alice", 7, 1, 5},
		{"bob", 12, 10, 15},
		{"eve", 20, 15, 25},
	}
	out := make([]*domain.Filter, 0, len(specs))
	for _, fs := range specs {
		wav := numeric.Reverse(numeric.Linspace(fs.lo, fs.hi, 100))
		resp := make([]float64, len(wav))
		for i := range resp {
			resp[i] = rng.Float64()
		}
		f, err := domain.NewFilter(fs.name, fs.pivot, wav, resp)
		if err != nil {
			return nil, fmt.Errorf("synth: %w", err)
		}
		f.Normalize()
		out = append(out, f)
	}
	return out, nil
}

// LawTable tabulates the power-law opacity chi = wav^-2 over 0.01..1000
// micron.
func LawTable() (wav, chi []float64) {
	wav = numeric.Logspace(-2, 3, 50)
	chi = make([]float64, len(wav))
	for i, w := range wav {
		chi[i] = math.Pow(w, -2)
	}
	return wav, chi
}

// Law builds the extinction law over the LawTable curve.
func Law() *extinction.Law {
	law, err := extinction.New(LawTable())
	if err != nil {
		// The tabulated curve is static and valid.
		panic(err)
	}
	return law
}

// RandomSources generates an observation table: mostly valid detections with
// occasional upper limits.
func RandomSources(rng *rand.Rand, n, bands int) []*domain.Source {
	out := make([]*domain.Source, 0, n)
	for i := 0; i < n; i++ {
		src := &domain.Source{
			Name:  fmt.Sprintf("source_%d", i+1),
			X:     rng.Float64()*360 - 180,
			Y:     rng.Float64()*180 - 90,
			Flags: make([]domain.Flag, bands),
			Flux:  make([]float64, bands),
			Error: make([]float64, bands),
		}
		for b := 0; b < bands; b++ {
			src.Flags[b] = domain.FlagValid
			if rng.Float64() < 0.15 {
				src.Flags[b] = domain.FlagUpperLimit
			}
			src.Flux[b] = 0.1 + 2*rng.Float64()
			src.Error[b] = src.Flux[b] * (0.05 + 0.25*rng.Float64())
		}
		out = append(out, src)
	}
	return out
}

// Dataset names the files WriteDataset produces inside the target directory.
const (
	FiltersFile    = "filters.json"
	ExtinctionFile = "extinction.txt"
	DataFile       = "data.txt"
)

// WriteDataset materializes a complete synthetic working set under dir: a
// grid directory (grid.yaml, parameters.json, seds/), filter curves, an
// extinction table and an observation table.
func WriteDataset(dir string, rng *rand.Rand, spec GridSpec, nSources int) error {
	seds, params, err := Grid(rng, spec)
	if err != nil {
		return err
	}
	meta := registry.Meta{
		Name:              spec.Name,
		Version:           1,
		ApertureDependent: spec.ApertureDependent,
		Units: &registry.MetaUnits{
			Wavelength: units.UnitWavelength,
			Flux:       units.UnitFlux,
			Aperture:   units.UnitAperture,
		},
	}
	if err := registry.Create(dir, meta); err != nil {
		return err
	}
	for _, sed := range seds {
		if err := registry.WriteSED(dir, sed); err != nil {
			return err
		}
	}
	if err := registry.WriteParameters(dir, params); err != nil {
		return err
	}

	filters, err := Filters(rng)
	if err != nil {
		return err
	}
	if err := store.WriteFilters(filepath.Join(dir, FiltersFile), filters); err != nil {
		return err
	}
	if err := writeLawTable(filepath.Join(dir, ExtinctionFile)); err != nil {
		return err
	}
	sources := RandomSources(rng, nSources, len(filters))
	return store.WriteSources(filepath.Join(dir, DataFile), sources)
}

func writeLawTable(path string) error {
	wav, chi := LawTable()
	var sb strings.Builder
	sb.WriteString("# wavelength(micron) chi\n")
	for i := range wav {
		fmt.Fprintf(&sb, "%.8e %.8e\n", wav[i], chi[i])
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
