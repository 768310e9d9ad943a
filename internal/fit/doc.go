// Package fit implements the grid search that ranks the models of a
// convolved table against observed photometry.
//
// # Overview
//
// A Fitter is built once per run from a convolved table, an extinction law
// and a Config. Construction resolves the configured band names to table
// columns and precomputes the attenuation factor for every (trial Av, band)
// pair, so the per-source work is pure arithmetic over read-only state.
//
// # Fitting flow
//
// FitSource scores one observed source:
//  1. Validate the source: band counts must match the configuration, every
//     non-ignored band needs a positive uncertainty, and at least one band
//     must be valid or an upper limit.
//  2. For each model in the table, for each trial Av and each aperture:
//     attenuate the model fluxes, solve the flux scale in closed form over
//     the valid bands (the one-parameter weighted least-squares optimum),
//     clamp it into the scale interval implied by the distance range, and
//     accumulate chi-square with one-sided penalties for exceeded upper
//     limits.
//  3. Keep, per model, only the (scale, Av, aperture) triple with the lowest
//     chi-square over the whole scan.
//  4. Sort the surviving models by chi-square, assign ranks from 1 and trim
//     the list according to the output policy.
//
// The Av scan is an exhaustive walk over a fixed ascending grid combined
// with the analytic scale optimum, not a nonlinear optimization: results are
// deterministic and independent of evaluation order.
//
// # Errors
//
// A source with no valid or upper-limit band fails with *domain.NoDataError,
// which callers treat as a per-source skip. Models missing a band the source
// uses, or lacking a usable reference distance under a distance constraint,
// are excluded from the candidate set and counted in Stats rather than
// reported as errors.
//
// Concurrency: a Fitter is immutable after New and safe for concurrent
// FitSource calls across goroutines.
package fit
