// Package output holds the telemetry sinks: the sample CSV, the
// modem-info JSON document, and the raw transcript log.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lukejenkins/cwd/parse"
)

// CSVSink appends sample records to a timestamped CSV file with the fixed
// column vocabulary. The header is written on creation and every row is
// flushed as it is written, so an interrupted run never leaves a
// truncated row behind.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	path string
}

// NewCSVSink creates dir if needed and opens a new file named
// <timestamp>_<filename> with the header row already written.
func NewCSVSink(dir, filename string, now time.Time) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}
	path := filepath.Join(dir, now.Format("20060102_150405")+"_"+filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(parse.Columns); err != nil {
		file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}
	return &CSVSink{file: file, w: w, path: path}, nil
}

// Path returns the file the sink writes to.
func (s *CSVSink) Path() string { return s.path }

// WriteSample appends one row. Fields absent from the record leave their
// column empty.
func (s *CSVSink) WriteSample(sample parse.FieldMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := make([]string, len(parse.Columns))
	for i, col := range parse.Columns {
		if v, ok := sample[col]; ok {
			row[i] = v.Text()
		}
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
