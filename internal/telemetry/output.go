package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Recorder appends TurnRecords to <dir>/turns.csv across runs.
type Recorder struct {
	path          string
	file          *os.File
	headerWritten bool
}

// NewRecorder opens the telemetry file in dir, creating it if needed.
// Returns nil if dir is empty (recording disabled).
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	path := filepath.Join(dir, "turns.csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening turns.csv: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat turns.csv: %w", err)
	}

	// An existing non-empty file already has its header.
	return &Recorder{path: path, file: f, headerWritten: info.Size() > 0}, nil
}

// Path returns the CSV file being written.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Write appends one record.
func (r *Recorder) Write(rec TurnRecord) error {
	if r == nil {
		return nil
	}

	records := []TurnRecord{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.file.Close()
}

// WriteCSV writes records with a header to w.
func WriteCSV(w io.Writer, records []TurnRecord) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// ReadCSV parses records previously written by a Recorder or WriteCSV.
func ReadCSV(r io.Reader) ([]TurnRecord, error) {
	var records []TurnRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return records, nil
}
