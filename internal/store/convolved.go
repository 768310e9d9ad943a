package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sedfit/internal/domain"
)

const (
	convolvedDir = "convolved"
	indexFile    = "index.json"
)

// AlreadyExistsError reports a convolved table that would be overwritten.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("store: convolved table already exists at %s", e.Path)
}

// convolvedIndex seals a run: the table metadata plus the models written, in
// name order. It is the last file written, so its presence marks a complete
// table.
type convolvedIndex struct {
	domain.TableMeta
	Models []string `json:"models"`
}

// ConvolvedDir writes one convolution run under <root>/convolved/: one JSON
// record per model plus the index. Begin claims the output, Put stores
// records, Finish writes the index that seals the run.
type ConvolvedDir struct {
	root string

	mu     sync.Mutex
	meta   *domain.TableMeta
	models []string
	seen   map[string]bool
}

var _ domain.ConvolvedStore = (*ConvolvedDir)(nil)

// NewConvolvedDir returns a store rooted at the grid directory.
func NewConvolvedDir(root string) *ConvolvedDir {
	return &ConvolvedDir{root: root}
}

func (s *ConvolvedDir) dir() string { return filepath.Join(s.root, convolvedDir) }

// Begin claims the output directory. An existing table (sealed or not) fails
// with *AlreadyExistsError unless overwrite is set, in which case it is
// removed first.
func (s *ConvolvedDir) Begin(meta domain.TableMeta, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta != nil {
		return fmt.Errorf("store: convolution run already begun")
	}
	if _, err := os.Stat(s.dir()); err == nil {
		if !overwrite {
			return &AlreadyExistsError{Path: s.dir()}
		}
		if err := os.RemoveAll(s.dir()); err != nil {
			return fmt.Errorf("store: remove old table: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return err
	}
	m := meta
	s.meta = &m
	s.seen = make(map[string]bool)
	return nil
}

// Put stores one model record. The record must carry as many bands as the
// run has filters.
func (s *ConvolvedDir) Put(rec *domain.ConvolvedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta == nil {
		return fmt.Errorf("store: Put before Begin")
	}
	if len(rec.Bands) != len(s.meta.Filters) {
		return fmt.Errorf("store: record %s has %d bands, run has %d filters", rec.Model, len(rec.Bands), len(s.meta.Filters))
	}
	if s.seen[rec.Model] {
		return fmt.Errorf("store: duplicate record for model %s", rec.Model)
	}
	if err := writeJSON(filepath.Join(s.dir(), rec.Model+".json"), rec, 0o644); err != nil {
		return err
	}
	s.seen[rec.Model] = true
	s.models = append(s.models, rec.Model)
	return nil
}

// Finish seals the run by writing the index. The index lists models in name
// order so table iteration does not depend on how Puts interleaved.
func (s *ConvolvedDir) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta == nil {
		return fmt.Errorf("store: Finish before Begin")
	}
	sort.Strings(s.models)
	idx := convolvedIndex{TableMeta: *s.meta, Models: s.models}
	if err := writeJSON(filepath.Join(s.dir(), indexFile), idx, 0o644); err != nil {
		return err
	}
	s.meta = nil
	s.models = nil
	s.seen = nil
	return nil
}

// LoadTable reads a sealed convolved table for fitting. The records come
// back in model-name order.
func LoadTable(root string) (*domain.ConvolvedTable, error) {
	dir := filepath.Join(root, convolvedDir)

	var idx convolvedIndex
	if err := readJSON(filepath.Join(dir, indexFile), &idx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("store: no sealed convolved table under %s (run convolve first)", root)
		}
		return nil, fmt.Errorf("store: read convolved index: %w", err)
	}
	if len(idx.Filters) == 0 {
		return nil, fmt.Errorf("store: convolved index lists no filters")
	}

	table := &domain.ConvolvedTable{
		TableMeta: idx.TableMeta,
		Records:   make([]*domain.ConvolvedRecord, 0, len(idx.Models)),
	}
	nAp := len(idx.Apertures)
	if nAp == 0 {
		nAp = 1
	}
	for _, model := range idx.Models {
		rec := &domain.ConvolvedRecord{}
		if err := readJSON(filepath.Join(dir, model+".json"), rec); err != nil {
			return nil, fmt.Errorf("store: read record %s: %w", model, err)
		}
		if rec.Model != model {
			return nil, fmt.Errorf("store: record file %s names itself %s", model, rec.Model)
		}
		if len(rec.Bands) != len(idx.Filters) {
			return nil, fmt.Errorf("store: record %s has %d bands, index has %d filters", model, len(rec.Bands), len(idx.Filters))
		}
		for _, band := range rec.Bands {
			if band.Covered && (len(band.Flux) != nAp || len(band.Error) != nAp) {
				return nil, fmt.Errorf("store: record %s band %s has %d flux values, expected %d", model, band.Filter, len(band.Flux), nAp)
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}
