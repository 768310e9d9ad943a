package domain

// ModelProvider serves the SEDs of one grid to the convolver.
type ModelProvider interface {
	GridName() string
	Fingerprint() string
	ApertureDependent() bool

	// Apertures is the grid's shared aperture list, nil for independent
	// grids.
	Apertures() []float64

	// Models lists model names in a stable order.
	Models() []string
	SED(name string) (*SED, error)
}

// ConvolvedStore persists one convolution run: Begin claims the output and
// writes the index, Put stores one model record, Finish seals the run.
type ConvolvedStore interface {
	Begin(meta TableMeta, overwrite bool) error
	Put(rec *ConvolvedRecord) error
	Finish() error
}

// FitWriter streams ranked fit results: one header, then one group per
// source in input order, then Close.
type FitWriter interface {
	WriteHeader(h RunHeader) error
	WriteSource(sf SourceFits) error
	Close() error
}
