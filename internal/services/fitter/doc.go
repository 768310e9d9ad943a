// Package fitter runs the fitting stage of the pipeline.
//
// It fans sources out over a worker pool, re-sequences the ranked results
// into input order and streams them through a fit writer.
package fitter
