package app

import (
	"log/slog"
	"runtime"
)

// Config holds runtime wiring options for building a pipeline stage.
type Config struct {
	GridDir        string       // model grid directory, also holds the convolved table
	Filters        string       // filter set JSON path
	Extinction     string       // extinction law table path
	ExtinctionEdge float64      // out-of-range tolerance factor; zero keeps the default
	Workers        int          // worker pool size; zero means one per CPU
	Log            *slog.Logger // optional; defaults to slog.Default()
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c Config) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
