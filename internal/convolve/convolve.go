package convolve

import (
	"errors"
	"fmt"

	"sedfit/internal/domain"
	"sedfit/internal/numeric"
)

// Band convolves one model with one filter and returns a band holding one
// flux/error pair per aperture row.
//
// The integrand is evaluated on the union of the model samples inside the
// filter support and the filter samples themselves, with both curves
// interpolated linearly onto that merged grid. The result is
//
//	integral(flux * response dnu) / integral(response dnu)
//
// and the model's error row goes through the same weighted integral.
//
// A filter support not fully contained in the model grid yields a
// *domain.CoverageError.
func Band(sed *domain.SED, f *domain.Filter) (domain.ConvolvedBand, error) {
	if !sed.Covers(f.NuMin(), f.NuMax()) {
		return domain.ConvolvedBand{Filter: f.Name}, &domain.CoverageError{
			Model:  sed.Name,
			Filter: f.Name,
			NuMin:  f.NuMin(),
			NuMax:  f.NuMax(),
			GridLo: sed.NuMin(),
			GridHi: sed.NuMax(),
		}
	}

	grid := numeric.MergeAscending(numeric.Within(sed.Nu, f.NuMin(), f.NuMax()), f.Nu)
	resp := numeric.Resample(f.Nu, f.Response, grid)
	denom := numeric.Trapezoid(grid, resp)
	if !(denom > 0) {
		return domain.ConvolvedBand{Filter: f.Name}, fmt.Errorf("convolve %s x %s: response integral %g is not positive", sed.Name, f.Name, denom)
	}

	rows := sed.NumApertures()
	band := domain.ConvolvedBand{
		Filter:  f.Name,
		Covered: true,
		Flux:    make([]float64, rows),
		Error:   make([]float64, rows),
	}
	weighted := make([]float64, len(grid))
	for a := 0; a < rows; a++ {
		flux := numeric.Resample(sed.Nu, sed.Flux[a], grid)
		for i := range grid {
			weighted[i] = flux[i] * resp[i]
		}
		band.Flux[a] = numeric.Trapezoid(grid, weighted) / denom

		errRow := numeric.Resample(sed.Nu, sed.Error[a], grid)
		for i := range grid {
			weighted[i] = errRow[i] * resp[i]
		}
		band.Error[a] = numeric.Trapezoid(grid, weighted) / denom
	}
	return band, nil
}

// Model convolves one SED against every filter. Uncovered filters become
// empty bands and are reported as coverage errors; any other failure aborts.
// The returned record's bands are parallel to the filter list.
func Model(sed *domain.SED, filters []*domain.Filter) (*domain.ConvolvedRecord, []*domain.CoverageError, error) {
	rec := &domain.ConvolvedRecord{
		Model:     sed.Name,
		Distance:  sed.Distance,
		Apertures: append([]float64(nil), sed.Apertures...),
		Bands:     make([]domain.ConvolvedBand, len(filters)),
	}
	var skipped []*domain.CoverageError
	for i, f := range filters {
		band, err := Band(sed, f)
		if err != nil {
			var cov *domain.CoverageError
			if !errors.As(err, &cov) {
				return nil, nil, err
			}
			skipped = append(skipped, cov)
		}
		rec.Bands[i] = band
	}
	return rec, skipped, nil
}
