// Package commands defines the sedfit CLI and wires dependencies for subcommands.
//
// Commands
//
//   - convolve   Build the convolved flux table for a model grid
//   - fit        Rank the grid's models against observed sources
//   - inspect    Summarize a sealed convolved table
//
// # Implementation
//
// The root command configures structured logging before any subcommand runs.
// Subcommands build their stage graph through internal/app, so handlers share
// the same wiring the tests use; a fatal configuration problem aborts before
// any per-source work starts.
package commands
