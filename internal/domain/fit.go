package domain

import "time"

// FitRecord is one (source, model) result retained after the Av scan: the
// best chi2 the model achieved over the Av grid together with the scale and
// extinction that achieved it.
//
// Chi2 is the ranking value: chi2 divided by DOF when Normalized, raw
// otherwise. Aperture is the index of the winning aperture in the table's
// aperture list, or -1 for aperture-independent grids. Distance is the
// distance in kpc implied by the scale relative to the model's reference
// distance (zero when the scale is not positive).
type FitRecord struct {
	Source     string  `json:"source"`
	Model      string  `json:"model"`
	Rank       int     `json:"rank"`
	Chi2       float64 `json:"chi2"`
	DOF        int     `json:"dof"`
	Normalized bool    `json:"normalized"`
	Scale      float64 `json:"scale"`
	Av         float64 `json:"av"`
	Aperture   int     `json:"aperture"`
	Distance   float64 `json:"distance"`
}

// SourceFits groups the ranked records of one source in output order.
type SourceFits struct {
	Source  string      `json:"source"`
	Records []FitRecord `json:"records"`
}

// RunHeader opens a fit output stream with enough metadata to interpret and
// reproduce the run.
type RunHeader struct {
	RunID       string    `json:"run_id"`
	Grid        string    `json:"grid"`
	Fingerprint string    `json:"fingerprint"`
	Filters     []string  `json:"filters"`
	Policy      string    `json:"policy"`
	CreatedAt   time.Time `json:"created_at"`
}
