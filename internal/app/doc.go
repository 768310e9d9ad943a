// Package app wires application dependencies for the CLI.
//
// It builds the model registry, filter set, extinction law and pipeline
// services from Config, exposing each stage via a bundle struct for
// commands to use.
package app
