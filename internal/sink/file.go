package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"buildlog/internal/logging"
)

// File appends CLEF lines to a local file. Writes take an advisory lock on
// a sibling .lock file so concurrent buildlog processes never interleave
// partial lines.
type File struct {
	mu     sync.Mutex
	file   *os.File
	lock   *flock.Flock
	logger *slog.Logger
	failed int
}

// OpenFile opens (or creates) path for appending.
func OpenFile(path string, logger *slog.Logger) (*File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create clef directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open clef file %s: %w", path, err)
	}
	return &File{
		file:   f,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "clef-file"),
	}, nil
}

// Append implements logging.LogEventSink.
func (s *File) Append(evt logging.LogEvent) {
	if err := s.write(evt); err != nil {
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()
		s.logger.Warn("clef write failed", logging.Error(err))
	}
}

func (s *File) write(evt logging.LogEvent) error {
	line, err := EncodeCLEF(evt)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock clef file: %w", err)
	}
	defer s.lock.Unlock() //nolint:errcheck
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("append clef line: %w", err)
	}
	return nil
}

// Failed reports how many events could not be written.
func (s *File) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Close closes the file. Later appends are counted as failures.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
