package fit

import (
	"fmt"
	"math"
	"sort"

	"sedfit/internal/domain"
	"sedfit/internal/extinction"
)

// Stats counts what happened to one source's candidate set.
type Stats struct {
	Candidates       int // models scored and ranked
	CoverageExcluded int // models missing a band the source uses
	DistanceExcluded int // models without a usable reference distance
}

// Fitter scores the models of one convolved table against observed sources.
type Fitter struct {
	table *domain.ConvolvedTable
	cfg   Config

	cols  []int       // fit band -> table column
	avs   []float64   // trial extinctions, ascending
	atten [][]float64 // attenuation factor per [trial][fit band]
}

// New validates the configuration against the table and precomputes the
// per-band attenuation factors for every trial Av.
func New(table *domain.ConvolvedTable, law *extinction.Law, cfg Config) (*Fitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil || len(table.Records) == 0 {
		return nil, fmt.Errorf("fit: empty convolved table")
	}

	cols := make([]int, len(cfg.Filters))
	for i, name := range cfg.Filters {
		col := table.FilterIndex(name)
		if col < 0 {
			return nil, fmt.Errorf("fit: filter %s not in convolved table for grid %s", name, table.Grid)
		}
		cols[i] = col
	}

	avs := AvGrid(cfg.AvMin, cfg.AvMax, cfg.AvStep)
	atten := make([][]float64, len(avs))
	for k, av := range avs {
		atten[k] = make([]float64, len(cols))
		for i, col := range cols {
			a, err := law.Attenuation(av, table.Filters[col].Wavelength)
			if err != nil {
				return nil, fmt.Errorf("fit: filter %s: %w", cfg.Filters[i], err)
			}
			atten[k][i] = a
		}
	}
	return &Fitter{table: table, cfg: cfg, cols: cols, avs: avs, atten: atten}, nil
}

// Avs returns the trial extinction grid.
func (f *Fitter) Avs() []float64 { return f.avs }

// Meta returns the metadata of the table being fitted.
func (f *Fitter) Meta() domain.TableMeta { return f.table.TableMeta }

// Config returns the configuration the fitter was built with.
func (f *Fitter) Config() Config { return f.cfg }

// NumBands is the number of fitted bands per source row.
func (f *Fitter) NumBands() int { return len(f.cols) }

// FitSource ranks every candidate model against one source.
//
// Records come back sorted ascending by chi2, ranked from 1 and trimmed by
// the output policy. A source with no valid or upper-limit band fails with
// *domain.NoDataError; a source whose every model was excluded returns an
// empty record list.
func (f *Fitter) FitSource(src *domain.Source) (domain.SourceFits, Stats, error) {
	var stats Stats
	out := domain.SourceFits{Source: src.Name}

	if len(src.Flags) != len(f.cols) || len(src.Flux) != len(f.cols) || len(src.Error) != len(f.cols) {
		return out, stats, fmt.Errorf("fit: source %s has %d bands, fit expects %d", src.Name, len(src.Flags), len(f.cols))
	}
	if src.NumUsable() == 0 {
		return out, stats, &domain.NoDataError{Source: src.Name}
	}
	for i, flag := range src.Flags {
		if flag != domain.FlagIgnore && src.Error[i] <= 0 {
			return out, stats, fmt.Errorf("fit: source %s band %s has non-positive uncertainty %g", src.Name, f.cfg.Filters[i], src.Error[i])
		}
	}

	records := make([]domain.FitRecord, 0, len(f.table.Records))
	for _, rec := range f.table.Records {
		r, exclude := f.bestFit(src, rec)
		switch exclude {
		case excludeCoverage:
			stats.CoverageExcluded++
		case excludeDistance:
			stats.DistanceExcluded++
		default:
			stats.Candidates++
			records = append(records, r)
		}
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Chi2 < records[j].Chi2 })
	for i := range records {
		records[i].Rank = i + 1
	}
	out.Records = f.cfg.Policy.Apply(records)
	return out, stats, nil
}

const (
	excludeNone = iota
	excludeCoverage
	excludeDistance
)

// bestFit evaluates one model over the full (Av, aperture) grid and keeps the
// lowest chi2. Ties resolve to the earliest trial, so reruns are stable.
func (f *Fitter) bestFit(src *domain.Source, rec *domain.ConvolvedRecord) (domain.FitRecord, int) {
	for i, col := range f.cols {
		if src.Flags[i] != domain.FlagIgnore && !rec.Bands[col].Covered {
			return domain.FitRecord{}, excludeCoverage
		}
	}

	constrained := f.cfg.DistanceConstrained()
	var sMin, sMax float64
	if constrained {
		if rec.Distance <= 0 {
			return domain.FitRecord{}, excludeDistance
		}
		sMin = (rec.Distance / f.cfg.DistanceMax) * (rec.Distance / f.cfg.DistanceMax)
		sMax = (rec.Distance / f.cfg.DistanceMin) * (rec.Distance / f.cfg.DistanceMin)
	}

	nAp := 1
	if len(rec.Apertures) > 0 {
		nAp = len(rec.Apertures)
	}

	best := domain.FitRecord{Source: src.Name, Model: rec.Model, Chi2: math.Inf(1), Aperture: -1}
	model := make([]float64, len(f.cols))
	for k, av := range f.avs {
		for a := 0; a < nAp; a++ {
			for i, col := range f.cols {
				if src.Flags[i] == domain.FlagIgnore {
					model[i] = 0
					continue
				}
				model[i] = rec.Bands[col].Flux[a] * f.atten[k][i]
			}
			scale, chi2, dof := score(src, model, sMin, sMax, constrained)

			value := chi2
			normalized := false
			if dof >= 1 {
				value = chi2 / float64(dof)
				normalized = true
			}
			if value < best.Chi2 {
				best.Chi2 = value
				best.DOF = dof
				best.Normalized = normalized
				best.Scale = scale
				best.Av = av
				if len(rec.Apertures) > 0 {
					best.Aperture = a
				}
			}
		}
	}
	if best.Scale > 0 {
		best.Distance = rec.Distance / math.Sqrt(best.Scale)
	}
	return best, excludeNone
}

// score solves the scale in closed form over the valid bands, clamps it into
// the allowed interval, and accumulates chi2 with one-sided upper-limit
// penalties. dof is valid bands plus violated limits minus one for the scale.
func score(src *domain.Source, model []float64, sMin, sMax float64, constrained bool) (scale, chi2 float64, dof int) {
	var num, den float64
	nValid := 0
	for i, flag := range src.Flags {
		if flag != domain.FlagValid {
			continue
		}
		sigma2 := src.Error[i] * src.Error[i]
		num += src.Flux[i] * model[i] / sigma2
		den += model[i] * model[i] / sigma2
		nValid++
	}
	switch {
	case den > 0:
		scale = num / den
	case constrained:
		scale = sMin
	default:
		scale = 0
	}
	if constrained {
		scale = math.Min(math.Max(scale, sMin), sMax)
	}

	violated := 0
	for i, flag := range src.Flags {
		switch flag {
		case domain.FlagValid:
			r := (src.Flux[i] - scale*model[i]) / src.Error[i]
			chi2 += r * r
		case domain.FlagUpperLimit:
			if scale*model[i] > src.Flux[i] {
				r := (src.Flux[i] - scale*model[i]) / src.Error[i]
				chi2 += r * r
				violated++
			}
		}
	}
	return scale, chi2, nValid + violated - 1
}
