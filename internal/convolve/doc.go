// Package convolve computes synthetic photometry: the flux a model SED
// would produce through a filter, as the response-weighted mean of the model
// flux over the filter's frequency support.
//
// Band handles one model/filter pair and Model a whole filter set; see their
// docs for the integration scheme. A filter whose support is not fully
// contained in the model grid yields a *domain.CoverageError instead of a
// value, and Model collects those so callers can skip uncovered bands while
// still aborting on real failures.
//
// All functions are pure: identical inputs produce identical outputs, so a
// sealed table convolved from the same grid and filters is reproducible.
package convolve
