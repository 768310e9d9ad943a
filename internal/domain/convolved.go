package domain

import (
	"fmt"
	"time"
)

// FilterInfo is the part of a filter that survives into a convolved table:
// its name and nominal wavelength in microns.
type FilterInfo struct {
	Name       string  `json:"name"`
	Wavelength float64 `json:"wavelength"`
}

// ConvolvedBand holds the synthetic photometry of one model through one
// filter: one flux/error pair per aperture (a single pair when the model is
// aperture-independent). Covered is false when the filter support fell
// outside the model's spectral grid; such bands carry no values.
type ConvolvedBand struct {
	Filter  string    `json:"filter"`
	Covered bool      `json:"covered"`
	Flux    []float64 `json:"flux,omitempty"`
	Error   []float64 `json:"error,omitempty"`
}

// ConvolvedRecord is the full set of synthetic photometry for one model,
// with bands parallel to the table's filter list.
type ConvolvedRecord struct {
	Model     string          `json:"model"`
	Distance  float64         `json:"distance"`
	Apertures []float64       `json:"apertures,omitempty"`
	Bands     []ConvolvedBand `json:"bands"`
}

// TableMeta identifies a convolution run: which grid (by name and
// fingerprint), which filters in which order, and which apertures.
type TableMeta struct {
	Grid        string       `json:"grid"`
	Fingerprint string       `json:"fingerprint"`
	RunID       string       `json:"run_id"`
	Filters     []FilterInfo `json:"filters"`
	Apertures   []float64    `json:"apertures,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// FilterIndex returns the column of the named filter, or -1.
func (m *TableMeta) FilterIndex(name string) int {
	for i, f := range m.Filters {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// ConvolvedTable is a fully loaded convolution run, shared read-only between
// fit workers.
type ConvolvedTable struct {
	TableMeta
	Records []*ConvolvedRecord
}

// CoverageError reports a filter whose support is not contained in a model's
// spectral grid.
type CoverageError struct {
	Model          string
	Filter         string
	NuMin, NuMax   float64 // required support, Hz
	GridLo, GridHi float64 // available grid, Hz
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("model %s does not cover filter %s: need [%.4g, %.4g] Hz, grid spans [%.4g, %.4g] Hz",
		e.Model, e.Filter, e.NuMin, e.NuMax, e.GridLo, e.GridHi)
}
