package app

import (
	"sedfit/internal/domain"
	"sedfit/internal/extinction"
	"sedfit/internal/fit"
	"sedfit/internal/registry"
	convolversvc "sedfit/internal/services/convolver"
	fittersvc "sedfit/internal/services/fitter"
	"sedfit/internal/store"
)

// Convolution bundles the convolve stage for the CLI.
type Convolution struct {
	Registry *registry.Registry
	Filters  []*domain.Filter
	Store    *store.ConvolvedDir
	Service  *convolversvc.Service
}

// WireConvolution constructs the convolve stage graph from cfg.
func WireConvolution(cfg Config) (*Convolution, error) {
	reg, err := registry.Load(cfg.GridDir)
	if err != nil {
		return nil, err
	}
	filters, err := store.ReadFilters(cfg.Filters)
	if err != nil {
		return nil, err
	}

	cs := store.NewConvolvedDir(cfg.GridDir)
	svc := convolversvc.New(reg, cs, cfg.logger(), cfg.workers())

	return &Convolution{
		Registry: reg,
		Filters:  filters,
		Store:    cs,
		Service:  svc,
	}, nil
}

// Fitting bundles the fit stage for the CLI. The fit writer is built by the
// command, since output targets come from flags.
type Fitting struct {
	Table  *domain.ConvolvedTable
	Law    *extinction.Law
	Fitter *fit.Fitter
}

// WireFitting loads the sealed convolved table and extinction law and builds
// a fitter for them.
func WireFitting(cfg Config, fcfg fit.Config) (*Fitting, error) {
	table, err := store.LoadTable(cfg.GridDir)
	if err != nil {
		return nil, err
	}
	law, err := store.ReadExtinction(cfg.Extinction)
	if err != nil {
		return nil, err
	}
	if cfg.ExtinctionEdge > 0 {
		law.SetEdgeFactor(cfg.ExtinctionEdge)
	}
	f, err := fit.New(table, law, fcfg)
	if err != nil {
		return nil, err
	}

	return &Fitting{
		Table:  table,
		Law:    law,
		Fitter: f,
	}, nil
}

// Fit builds the fit service over a wired stage and writer.
func (w *Fitting) Fit(cfg Config, out domain.FitWriter) *fittersvc.Service {
	return fittersvc.New(w.Fitter, out, cfg.logger(), cfg.workers())
}
