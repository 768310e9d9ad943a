// Package domain defines core data models and interfaces shared across the app.
// It contains validated value types (filters, SEDs, sources, fit results) and
// the contracts (interfaces) implemented by stores and providers.
//
// Constructors establish shape and unit invariants once: spectral grids are
// strictly ascending in frequency, vectors are equal length. Downstream code
// assumes canonical data and stays free of defensive re-checks.
package domain
