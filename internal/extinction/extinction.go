// Package extinction models interstellar extinction as a tabulated opacity
// curve chi(wavelength) and turns it into multiplicative attenuation factors
// for trial Av values.
package extinction

import (
	"fmt"
	"math"
	"sort"

	"sedfit/internal/numeric"
)

// DefaultEdgeFactor bounds how far outside the tabulated wavelength range a
// lookup may clamp to the edge value before it becomes an error.
const DefaultEdgeFactor = 10

// RangeError reports a wavelength too far outside the tabulated curve.
type RangeError struct {
	Wavelength float64
	Min, Max   float64 // tolerated range, microns
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("extinction: wavelength %g micron outside tolerated range [%g, %g]", e.Wavelength, e.Min, e.Max)
}

// Law is an extinction curve sampled at ascending wavelengths. Lookups
// interpolate linearly between samples; within an edge-factor of the support
// they clamp to the nearest edge value, beyond that they fail. The zero value
// is not usable; construct with New.
type Law struct {
	wav        []float64
	chi        []float64
	edgeFactor float64
}

// New builds a Law from opacity control points. The points may arrive in any
// order; they are sorted by wavelength. It rejects curves with fewer than two
// points, non-positive wavelengths, duplicate wavelengths and non-finite
// opacities.
func New(wav, chi []float64) (*Law, error) {
	if len(wav) != len(chi) {
		return nil, fmt.Errorf("extinction: %d wavelengths but %d opacities", len(wav), len(chi))
	}
	if len(wav) < 2 {
		return nil, fmt.Errorf("extinction: need at least 2 control points, got %d", len(wav))
	}
	if !numeric.AllPositive(wav) {
		return nil, fmt.Errorf("extinction: wavelengths must be positive and finite")
	}
	if !numeric.AllFinite(chi) {
		return nil, fmt.Errorf("extinction: non-finite opacity value")
	}

	l := &Law{
		wav:        append([]float64(nil), wav...),
		chi:        append([]float64(nil), chi...),
		edgeFactor: DefaultEdgeFactor,
	}
	sort.Sort(byWavelength{l.wav, l.chi})
	if !numeric.StrictlyAscending(l.wav) {
		return nil, fmt.Errorf("extinction: duplicate wavelength control points")
	}
	return l, nil
}

// SetEdgeFactor replaces the out-of-range tolerance factor. Values at or
// below 1 restrict lookups to the exact tabulated range.
func (l *Law) SetEdgeFactor(f float64) {
	if f < 1 {
		f = 1
	}
	l.edgeFactor = f
}

// Support returns the tabulated wavelength range in microns.
func (l *Law) Support() (min, max float64) {
	return l.wav[0], l.wav[len(l.wav)-1]
}

// Chi returns the opacity at a wavelength in microns.
func (l *Law) Chi(wav float64) (float64, error) {
	lo, hi := l.Support()
	if wav < lo/l.edgeFactor || wav > hi*l.edgeFactor || wav <= 0 || math.IsNaN(wav) {
		return 0, &RangeError{Wavelength: wav, Min: lo / l.edgeFactor, Max: hi * l.edgeFactor}
	}
	return numeric.Interp(l.wav, l.chi, wav), nil
}

// Attenuation returns the flux factor 10^(-0.4*av*chi) for a trial Av at a
// wavelength in microns. Av zero always yields exactly 1.
func (l *Law) Attenuation(av, wav float64) (float64, error) {
	if av == 0 {
		return 1, nil
	}
	chi, err := l.Chi(wav)
	if err != nil {
		return 0, err
	}
	return math.Pow(10, -0.4*av*chi), nil
}

type byWavelength struct {
	wav []float64
	chi []float64
}

func (s byWavelength) Len() int           { return len(s.wav) }
func (s byWavelength) Less(i, j int) bool { return s.wav[i] < s.wav[j] }
func (s byWavelength) Swap(i, j int) {
	s.wav[i], s.wav[j] = s.wav[j], s.wav[i]
	s.chi[i], s.chi[j] = s.chi[j], s.chi[i]
}
