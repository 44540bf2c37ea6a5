package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TranscriptLog records the raw modem traffic verbatim: one ">>>" line
// per sent command, one "<<<" entry per received response, each stamped
// with wall-clock time and flushed immediately. It satisfies the
// executor's Transcript interface.
type TranscriptLog struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
	path string
}

// NewTranscriptLog creates dir if needed and opens a new
// <timestamp>_cwd_raw.log inside it. A nil clock uses time.Now.
func NewTranscriptLog(dir string, now func() time.Time) (*TranscriptLog, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	path := filepath.Join(dir, now().Format("20060102_150405")+"_cwd_raw.log")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}
	return &TranscriptLog{file: file, now: now, path: path}, nil
}

// Path returns the file the transcript writes to.
func (t *TranscriptLog) Path() string { return t.path }

// Sent records a transmitted command.
func (t *TranscriptLog) Sent(cmd string) {
	t.write(">>>", cmd)
}

// Received records a raw response exactly as it arrived.
func (t *TranscriptLog) Received(raw string) {
	t.write("<<<", raw)
}

func (t *TranscriptLog) write(direction, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}
	stamp := t.now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(t.file, "%s %s %s\n", stamp, direction, text)
}

// Close closes the transcript file. Further writes are dropped.
func (t *TranscriptLog) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
