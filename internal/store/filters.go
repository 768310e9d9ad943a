package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sedfit/internal/domain"
	"sedfit/internal/extinction"
)

// filterFile is the on-disk layout of one response curve.
type filterFile struct {
	Name       string    `json:"name"`
	Wavelength float64   `json:"wavelength"`
	Wav        []float64 `json:"wav"`
	Response   []float64 `json:"response"`
}

// ReadFilters loads a JSON list of response curves, validates each through
// the domain constructor and normalizes the responses to unit integral.
func ReadFilters(path string) ([]*domain.Filter, error) {
	var files []filterFile
	if err := readJSON(path, &files); err != nil {
		return nil, fmt.Errorf("filters: read %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("filters: %s lists no filters", path)
	}

	out := make([]*domain.Filter, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, ff := range files {
		if seen[ff.Name] {
			return nil, fmt.Errorf("filters: duplicate filter %s in %s", ff.Name, path)
		}
		f, err := domain.NewFilter(ff.Name, ff.Wavelength, ff.Wav, ff.Response)
		if err != nil {
			return nil, fmt.Errorf("filters: %w", err)
		}
		f.Normalize()
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

// WriteFilters stores response curves as JSON, the inverse of ReadFilters.
func WriteFilters(path string, filters []*domain.Filter) error {
	files := make([]filterFile, len(filters))
	for i, f := range filters {
		files[i] = filterFile{Name: f.Name, Wavelength: f.Wavelength, Wav: f.Wav, Response: f.Response}
	}
	return writeJSON(path, files, 0o644)
}

// ReadExtinction loads an extinction curve from a two-column text file of
// wavelength (micron) and opacity, skipping blank lines and # comments.
func ReadExtinction(path string) (*extinction.Law, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extinction: %w", err)
	}
	defer f.Close()

	var wav, chi []float64
	sc := bufio.NewScanner(f)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("extinction: %s line %d: got %d columns, want 2", path, ln, len(fields))
		}
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("extinction: %s line %d: wavelength %q", path, ln, fields[0])
		}
		c, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("extinction: %s line %d: opacity %q", path, ln, fields[1])
		}
		wav = append(wav, w)
		chi = append(chi, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("extinction: read %s: %w", path, err)
	}
	law, err := extinction.New(wav, chi)
	if err != nil {
		return nil, fmt.Errorf("extinction: %s: %w", path, err)
	}
	return law, nil
}
