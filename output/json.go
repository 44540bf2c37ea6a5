package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lukejenkins/cwd/parse"
)

// JSONSink rewrites the modem-info document whenever the record changes.
// The write is whole-document and atomic: a temp file in the same
// directory is renamed over the target, so a reader never observes a
// partially-written document.
type JSONSink struct {
	path string
}

// NewJSONSink creates dir if needed and targets
// <timestamp>_<filename> inside it.
func NewJSONSink(dir, filename string, now time.Time) (*JSONSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create json directory: %w", err)
	}
	return &JSONSink{
		path: filepath.Join(dir, now.Format("20060102_150405")+"_"+filename),
	}, nil
}

// Path returns the file the sink writes to.
func (s *JSONSink) Path() string { return s.path }

// WriteInfo replaces the document with the given record.
func (s *JSONSink) WriteInfo(info parse.FieldMap) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal modem info: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write modem info: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace modem info document: %w", err)
	}
	return nil
}
