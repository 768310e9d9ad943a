// Package store provides persistence for sedfit's inputs and outputs.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. Writers replace files atomically via a
// temp file and rename, so readers never observe partial content.
//
// The package includes:
//   - Convolved-flux tables (ConvolvedDir, LoadTable)
//   - Observation tables (ReadSources)
//   - Filter response curves (ReadFilters)
//   - Extinction curves (ReadExtinction)
//   - Fit result streams (JSONLWriter, ReadResults, SQLWriter)
package store
