package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sedfit/internal/domain"
)

// ReadSources parses an observation table with one source per line:
//
//	name x y flag... flux error flux error ...
//
// with one validity flag and one flux/error pair (mJy) per configured band.
// Blank lines and lines starting with # are skipped. Row shape is validated
// against nBands; parse failures carry the line number.
func ReadSources(path string, nBands int) ([]*domain.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	defer f.Close()

	var out []*domain.Source
	sc := bufio.NewScanner(f)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		src, err := parseSource(line, nBands)
		if err != nil {
			return nil, fmt.Errorf("sources: %s line %d: %w", path, ln, err)
		}
		out = append(out, src)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sources: read %s: %w", path, err)
	}
	return out, nil
}

// WriteSources stores an observation table in the format ReadSources
// expects.
func WriteSources(path string, sources []*domain.Source) error {
	var sb strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&sb, "%s %g %g", src.Name, src.X, src.Y)
		for _, flag := range src.Flags {
			fmt.Fprintf(&sb, " %d", int(flag))
		}
		for i := range src.Flux {
			fmt.Fprintf(&sb, " %g %g", src.Flux[i], src.Error[i])
		}
		sb.WriteByte('\n')
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func parseSource(line string, nBands int) (*domain.Source, error) {
	fields := strings.Fields(line)
	want := 3 + 3*nBands
	if len(fields) != want {
		return nil, fmt.Errorf("got %d columns, want %d for %d bands", len(fields), want, nBands)
	}

	src := &domain.Source{
		Name:  fields[0],
		Flags: make([]domain.Flag, nBands),
		Flux:  make([]float64, nBands),
		Error: make([]float64, nBands),
	}
	var err error
	if src.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return nil, fmt.Errorf("x position %q", fields[1])
	}
	if src.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return nil, fmt.Errorf("y position %q", fields[2])
	}
	for i := 0; i < nBands; i++ {
		code, err := strconv.Atoi(fields[3+i])
		if err != nil {
			return nil, fmt.Errorf("flag %q", fields[3+i])
		}
		if src.Flags[i], err = domain.ParseFlag(code); err != nil {
			return nil, err
		}
	}
	for i := 0; i < nBands; i++ {
		base := 3 + nBands + 2*i
		if src.Flux[i], err = strconv.ParseFloat(fields[base], 64); err != nil {
			return nil, fmt.Errorf("flux %q", fields[base])
		}
		if src.Error[i], err = strconv.ParseFloat(fields[base+1], 64); err != nil {
			return nil, fmt.Errorf("error %q", fields[base+1])
		}
	}
	return src, nil
}
