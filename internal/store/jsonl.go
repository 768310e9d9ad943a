package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sedfit/internal/domain"
)

// resultLine is one line of a fit output stream: exactly one of the fields
// is set. The header is always the first line.
type resultLine struct {
	Header *domain.RunHeader  `json:"header,omitempty"`
	Fits   *domain.SourceFits `json:"fits,omitempty"`
}

// JSONLWriter streams fit results as JSON Lines. Output accumulates in a
// temp file and becomes visible atomically on Close, so a crashed or aborted
// run leaves no partial result file behind.
type JSONLWriter struct {
	path string

	mu         sync.Mutex
	f          *os.File
	bw         *bufio.Writer
	enc        *json.Encoder
	headerDone bool
	done       bool
}

var _ domain.FitWriter = (*JSONLWriter)(nil)

// NewJSONLWriter starts a stream that will commit to path on Close.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("store: create fit output: %w", err)
	}
	bw := bufio.NewWriter(f)
	return &JSONLWriter{path: path, f: f, bw: bw, enc: json.NewEncoder(bw)}, nil
}

// WriteHeader writes the run metadata line. It must come first and once.
func (w *JSONLWriter) WriteHeader(h domain.RunHeader) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return fmt.Errorf("store: write on finished stream")
	}
	if w.headerDone {
		return fmt.Errorf("store: header already written")
	}
	if err := w.enc.Encode(resultLine{Header: &h}); err != nil {
		return err
	}
	w.headerDone = true
	return nil
}

// WriteSource appends one source's ranked records.
func (w *JSONLWriter) WriteSource(sf domain.SourceFits) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return fmt.Errorf("store: write on finished stream")
	}
	if !w.headerDone {
		return fmt.Errorf("store: source written before header")
	}
	return w.enc.Encode(resultLine{Fits: &sf})
}

// Close flushes the stream and renames it into place.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return nil
	}
	w.done = true
	tmp := w.f.Name()
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, w.path)
}

// Abort discards the stream without committing.
func (w *JSONLWriter) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return
	}
	w.done = true
	tmp := w.f.Name()
	w.f.Close()
	os.Remove(tmp)
}

// ReadResults loads a committed fit output stream.
func ReadResults(path string) (domain.RunHeader, []domain.SourceFits, error) {
	var header domain.RunHeader
	f, err := os.Open(path)
	if err != nil {
		return header, nil, fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	var fits []domain.SourceFits
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	headerSeen := false
	for ln := 1; sc.Scan(); ln++ {
		var line resultLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return header, nil, fmt.Errorf("store: %s line %d: %w", path, ln, err)
		}
		switch {
		case line.Header != nil:
			if headerSeen {
				return header, nil, fmt.Errorf("store: %s line %d: second header", path, ln)
			}
			header = *line.Header
			headerSeen = true
		case line.Fits != nil:
			if !headerSeen {
				return header, nil, fmt.Errorf("store: %s line %d: fits before header", path, ln)
			}
			fits = append(fits, *line.Fits)
		default:
			return header, nil, fmt.Errorf("store: %s line %d: empty line record", path, ln)
		}
	}
	if err := sc.Err(); err != nil {
		return header, nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if !headerSeen {
		return header, nil, fmt.Errorf("store: %s has no header", path)
	}
	return header, fits, nil
}

// multiWriter fans fit output to several writers, stopping at the first
// error.
type multiWriter struct {
	ws []domain.FitWriter
}

// MultiWriter combines writers so a run can stream to a file and a database
// at once.
func MultiWriter(ws ...domain.FitWriter) domain.FitWriter {
	return &multiWriter{ws: ws}
}

func (m *multiWriter) WriteHeader(h domain.RunHeader) error {
	for _, w := range m.ws {
		if err := w.WriteHeader(h); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiWriter) WriteSource(sf domain.SourceFits) error {
	for _, w := range m.ws {
		if err := w.WriteSource(sf); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiWriter) Close() error {
	var first error
	for _, w := range m.ws {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
