package domain

import (
	"fmt"

	"sedfit/internal/numeric"
	"sedfit/internal/units"
)

// SED is one model spectral energy distribution from a grid.
//
// Wav and Nu are parallel spectral grids ordered by strictly ascending Nu.
// Flux and Error hold one row per aperture (a single row when the model is
// aperture-independent), each row parallel to the spectral grid. Distance is
// the reference distance in kpc at which the fluxes are tabulated.
type SED struct {
	Name      string      `json:"name"`
	Distance  float64     `json:"distance"`
	Wav       []float64   `json:"wav"`
	Nu        []float64   `json:"nu"`
	Apertures []float64   `json:"apertures,omitempty"`
	Flux      [][]float64 `json:"flux"`
	Error     [][]float64 `json:"error,omitempty"`
}

// NewSED builds a model SED and canonicalizes it to ascending frequency,
// re-ordering every flux and error row together with the grid. An empty
// aperture list means the model is aperture-independent and carries exactly
// one flux row. A nil error matrix becomes all-zero uncertainties.
func NewSED(name string, distance float64, wav, apertures []float64, flux, errs [][]float64) (*SED, error) {
	if name == "" {
		return nil, fmt.Errorf("sed: empty name")
	}
	if len(wav) < 2 {
		return nil, fmt.Errorf("sed %s: need at least 2 spectral samples, got %d", name, len(wav))
	}
	rows := len(apertures)
	if rows == 0 {
		rows = 1
	}
	if len(flux) != rows {
		return nil, fmt.Errorf("sed %s: %d apertures but %d flux rows", name, len(apertures), len(flux))
	}
	if errs == nil {
		errs = make([][]float64, rows)
		for i := range errs {
			errs[i] = make([]float64, len(wav))
		}
	}
	if len(errs) != rows {
		return nil, fmt.Errorf("sed %s: %d apertures but %d error rows", name, len(apertures), len(errs))
	}
	for i := 0; i < rows; i++ {
		if len(flux[i]) != len(wav) {
			return nil, fmt.Errorf("sed %s: flux row %d has %d samples, grid has %d", name, i, len(flux[i]), len(wav))
		}
		if len(errs[i]) != len(wav) {
			return nil, fmt.Errorf("sed %s: error row %d has %d samples, grid has %d", name, i, len(errs[i]), len(wav))
		}
		if !numeric.AllFinite(flux[i]) || !numeric.AllFinite(errs[i]) {
			return nil, fmt.Errorf("sed %s: non-finite flux or error in row %d", name, i)
		}
	}
	if len(apertures) > 0 && !numeric.StrictlyAscending(apertures) {
		return nil, fmt.Errorf("sed %s: apertures must be strictly ascending", name)
	}

	s := &SED{
		Name:      name,
		Distance:  distance,
		Wav:       append([]float64(nil), wav...),
		Nu:        make([]float64, len(wav)),
		Apertures: append([]float64(nil), apertures...),
		Flux:      make([][]float64, rows),
		Error:     make([][]float64, rows),
	}
	for i, w := range s.Wav {
		nu, err := units.Frequency(w)
		if err != nil {
			return nil, fmt.Errorf("sed %s: %w", name, err)
		}
		s.Nu[i] = nu
	}
	for i := 0; i < rows; i++ {
		s.Flux[i] = append([]float64(nil), flux[i]...)
		s.Error[i] = append([]float64(nil), errs[i]...)
	}

	companions := make([][]float64, 0, 1+2*rows)
	companions = append(companions, s.Wav)
	companions = append(companions, s.Flux...)
	companions = append(companions, s.Error...)
	sortSpectral(s.Nu, companions...)
	if !numeric.StrictlyAscending(s.Nu) {
		return nil, fmt.Errorf("sed %s: duplicate spectral samples", name)
	}
	return s, nil
}

// ApertureDependent reports whether the model tabulates flux per aperture.
func (s *SED) ApertureDependent() bool { return len(s.Apertures) > 0 }

// NumApertures returns the number of flux rows (one when independent).
func (s *SED) NumApertures() int {
	if len(s.Apertures) > 0 {
		return len(s.Apertures)
	}
	return 1
}

// NuMin returns the lowest frequency of the spectral grid.
func (s *SED) NuMin() float64 { return s.Nu[0] }

// NuMax returns the highest frequency of the spectral grid.
func (s *SED) NuMax() float64 { return s.Nu[len(s.Nu)-1] }

// Covers reports whether the spectral grid spans [nuMin, nuMax] entirely.
func (s *SED) Covers(nuMin, nuMax float64) bool {
	return s.NuMin() <= nuMin && s.NuMax() >= nuMax
}
