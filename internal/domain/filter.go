package domain

import (
	"fmt"
	"sort"

	"sedfit/internal/numeric"
	"sedfit/internal/units"
)

// Filter is a photometric transmission curve resolved onto a frequency grid.
//
// Wav, Nu and Response are parallel slices ordered by strictly ascending Nu
// (descending wavelength). Wavelength is the nominal band wavelength in
// microns used for extinction lookups and reporting.
type Filter struct {
	Name       string    `json:"name"`
	Wavelength float64   `json:"wavelength"`
	Wav        []float64 `json:"wav"`
	Nu         []float64 `json:"nu"`
	Response   []float64 `json:"response"`
}

// NewFilter builds a Filter from a sampled response curve. The samples may
// arrive in any wavelength order; they are re-sorted to ascending frequency.
// It rejects empty names, curves with fewer than two samples, non-positive
// wavelengths, duplicate samples, non-finite responses and curves whose
// response integral is not positive.
func NewFilter(name string, wavelength float64, wav, response []float64) (*Filter, error) {
	if name == "" {
		return nil, fmt.Errorf("filter: empty name")
	}
	if wavelength <= 0 {
		return nil, &units.UnitError{Quantity: "filter wavelength", Unit: units.UnitWavelength, Value: wavelength, Reason: "must be positive"}
	}
	if len(wav) != len(response) {
		return nil, fmt.Errorf("filter %s: %d wavelengths but %d response samples", name, len(wav), len(response))
	}
	if len(wav) < 2 {
		return nil, fmt.Errorf("filter %s: need at least 2 samples, got %d", name, len(wav))
	}
	if !numeric.AllFinite(response) {
		return nil, fmt.Errorf("filter %s: non-finite response sample", name)
	}

	f := &Filter{
		Name:       name,
		Wavelength: wavelength,
		Wav:        append([]float64(nil), wav...),
		Nu:         make([]float64, len(wav)),
		Response:   append([]float64(nil), response...),
	}
	for i, w := range f.Wav {
		nu, err := units.Frequency(w)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
		f.Nu[i] = nu
	}
	sortSpectral(f.Nu, f.Wav, f.Response)
	if !numeric.StrictlyAscending(f.Nu) {
		return nil, fmt.Errorf("filter %s: duplicate wavelength samples", name)
	}
	if integral := numeric.Trapezoid(f.Nu, f.Response); !(integral > 0) {
		return nil, fmt.Errorf("filter %s: response integral %g is not positive", name, integral)
	}
	return f, nil
}

// Normalize rescales Response so that its trapezoid integral over Nu is one.
// Applying it twice is a no-op up to floating point.
func (f *Filter) Normalize() {
	integral := numeric.Trapezoid(f.Nu, f.Response)
	for i := range f.Response {
		f.Response[i] /= integral
	}
}

// NuMin returns the lowest frequency of the response support.
func (f *Filter) NuMin() float64 { return f.Nu[0] }

// NuMax returns the highest frequency of the response support.
func (f *Filter) NuMax() float64 { return f.Nu[len(f.Nu)-1] }

// sortSpectral orders nu ascending and applies the same permutation to every
// companion slice.
func sortSpectral(nu []float64, companions ...[]float64) {
	idx := make([]int, len(nu))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return nu[idx[a]] < nu[idx[b]] })

	apply := func(xs []float64) {
		tmp := make([]float64, len(xs))
		for i, j := range idx {
			tmp[i] = xs[j]
		}
		copy(xs, tmp)
	}
	apply(nu)
	for _, c := range companions {
		apply(c)
	}
}
