package domain

import "fmt"

// Flag marks how one band of an observed source takes part in a fit.
type Flag int

const (
	// FlagIgnore excludes the band entirely.
	FlagIgnore Flag = 0
	// FlagValid marks a detection with a symmetric uncertainty.
	FlagValid Flag = 1
	// FlagUpperLimit marks a non-detection: the flux is an upper bound that
	// only penalizes models exceeding it.
	FlagUpperLimit Flag = 3
)

// ParseFlag validates a numeric validity code from a data file.
func ParseFlag(code int) (Flag, error) {
	switch Flag(code) {
	case FlagIgnore, FlagValid, FlagUpperLimit:
		return Flag(code), nil
	}
	return 0, fmt.Errorf("unknown validity flag %d", code)
}

// Source is one observed object: a position, and per configured band a
// validity flag with a flux/uncertainty pair in mJy. Flags, Flux and Error
// are parallel to the fit's ordered filter list.
type Source struct {
	Name  string    `json:"name"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Flags []Flag    `json:"flags"`
	Flux  []float64 `json:"flux"`
	Error []float64 `json:"error"`
}

// NumBands returns the number of configured bands.
func (s *Source) NumBands() int { return len(s.Flags) }

// NumUsable counts the bands that constrain a fit (valid or upper limit).
func (s *Source) NumUsable() int {
	n := 0
	for _, f := range s.Flags {
		if f == FlagValid || f == FlagUpperLimit {
			n++
		}
	}
	return n
}

// NoDataError reports a source with no band that could constrain a fit.
type NoDataError struct {
	Source string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("source %s has no valid or upper-limit band", e.Source)
}
