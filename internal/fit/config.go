package fit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"sedfit/internal/domain"
)

// Config holds the per-run fit parameters.
//
// Filters lists band names in data-column order; every name must exist in the
// convolved table. DistanceMin/DistanceMax bound the allowed source distance
// in kpc and translate into a per-model scale interval; leaving both zero
// lifts the constraint. AvMin/AvMax/AvStep define the extinction grid in
// magnitudes.
type Config struct {
	Filters     []string
	DistanceMin float64
	DistanceMax float64
	AvMin       float64
	AvMax       float64
	AvStep      float64
	Policy      Policy
}

// Validate reports the first malformed setting.
func (c *Config) Validate() error {
	if len(c.Filters) == 0 {
		return fmt.Errorf("fit: no filters configured")
	}
	seen := make(map[string]bool, len(c.Filters))
	for _, name := range c.Filters {
		if name == "" {
			return fmt.Errorf("fit: empty filter name")
		}
		if seen[name] {
			return fmt.Errorf("fit: duplicate filter %s", name)
		}
		seen[name] = true
	}
	if c.DistanceMin != 0 || c.DistanceMax != 0 {
		if c.DistanceMin <= 0 || c.DistanceMax < c.DistanceMin {
			return fmt.Errorf("fit: invalid distance range [%g, %g] kpc", c.DistanceMin, c.DistanceMax)
		}
	}
	if c.AvMin > c.AvMax {
		return fmt.Errorf("fit: inverted Av range [%g, %g]", c.AvMin, c.AvMax)
	}
	if c.AvStep < 0 {
		return fmt.Errorf("fit: negative Av step %g", c.AvStep)
	}
	return nil
}

// DistanceConstrained reports whether a distance range is configured.
func (c *Config) DistanceConstrained() bool {
	return c.DistanceMin != 0 || c.DistanceMax != 0
}

// AvGrid expands an extinction range into the ascending list of trial Av
// values. A collapsed range is a single point; a zero step yields just the
// two bounds; otherwise the grid steps from the lower bound and the final
// point lands exactly on the upper bound.
func AvGrid(min, max, step float64) []float64 {
	if min == max {
		return []float64{min}
	}
	if step <= 0 {
		return []float64{min, max}
	}
	span := max - min
	n := int(math.Floor(span/step + 1e-9))
	out := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		out = append(out, min+float64(i)*step)
	}
	// Pin the endpoint rather than trusting accumulated steps.
	if span-float64(n)*step < step*1e-9 {
		out[n] = max
	} else {
		out = append(out, max)
	}
	return out
}

// PolicyKind selects how many ranked fits survive per source.
type PolicyKind int

const (
	// PolicyAll keeps every candidate.
	PolicyAll PolicyKind = iota
	// PolicyTopN keeps the N best fits.
	PolicyTopN
	// PolicyCutoff keeps fits with chi2 at or below an absolute value.
	PolicyCutoff
	// PolicyDelta keeps fits within a chi2 distance of the best fit.
	PolicyDelta
)

// Policy is a parsed output selection policy.
type Policy struct {
	Kind  PolicyKind
	N     int
	Value float64
}

// ParsePolicy reads a policy from its textual form: "all", "top:<n>",
// "chi2:<v>" or "delta:<v>".
func ParsePolicy(s string) (Policy, error) {
	if s == "" || s == "all" {
		return Policy{Kind: PolicyAll}, nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	if !ok {
		return Policy{}, fmt.Errorf("fit: malformed policy %q", s)
	}
	switch kind {
	case "top":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return Policy{}, fmt.Errorf("fit: policy %q needs a positive count", s)
		}
		return Policy{Kind: PolicyTopN, N: n}, nil
	case "chi2":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v < 0 {
			return Policy{}, fmt.Errorf("fit: policy %q needs a non-negative chi2", s)
		}
		return Policy{Kind: PolicyCutoff, Value: v}, nil
	case "delta":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v < 0 {
			return Policy{}, fmt.Errorf("fit: policy %q needs a non-negative delta", s)
		}
		return Policy{Kind: PolicyDelta, Value: v}, nil
	}
	return Policy{}, fmt.Errorf("fit: unknown policy %q", s)
}

func (p Policy) String() string {
	switch p.Kind {
	case PolicyTopN:
		return fmt.Sprintf("top:%d", p.N)
	case PolicyCutoff:
		return fmt.Sprintf("chi2:%g", p.Value)
	case PolicyDelta:
		return fmt.Sprintf("delta:%g", p.Value)
	}
	return "all"
}

// Apply trims a chi2-ascending record list according to the policy.
func (p Policy) Apply(records []domain.FitRecord) []domain.FitRecord {
	switch p.Kind {
	case PolicyTopN:
		if len(records) > p.N {
			return records[:p.N]
		}
	case PolicyCutoff:
		for i, r := range records {
			if r.Chi2 > p.Value {
				return records[:i]
			}
		}
	case PolicyDelta:
		if len(records) == 0 {
			return records
		}
		best := records[0].Chi2
		for i, r := range records {
			if r.Chi2-best > p.Value {
				return records[:i]
			}
		}
	}
	return records
}
