package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"buildlog/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
	// Color is auto, always or never. Auto colors console output only when
	// every output is a terminal.
	Color string
	// Stream receives every record visible at SinkVerbosity. The zero
	// verbosity is quiet.
	Stream        *StreamHub
	SinkVerbosity Verbosity
	// Parameters is the host's logger parameter string, attached verbatim.
	Parameters string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	writer, files, err := openWriters(defaultSlice(opts.OutputPaths, []string{"stdout"}))
	if err != nil {
		return nil, err
	}

	addSource := opts.Development || level.Level() <= LevelDiagnostic

	var local slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		local = newConsoleHandler(writer, level, addSource, shouldColorize(opts.Color, files))
	case "json":
		local = newJSONHandler(writer, level, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	var sink slog.Handler = NoopHandler{}
	if opts.Stream != nil {
		sink = newMinLevelHandler(newSinkHandler(opts.Stream), opts.SinkVerbosity.MinLevel())
	}

	handler := newTeeHandler(local, sink)
	if params := strings.TrimSpace(opts.Parameters); params != "" {
		handler = newStaticAttrHandler(handler, slog.String(FieldParameters, opts.Parameters))
	}
	return slog.New(handler), nil
}

// NewFromConfig creates a logger from the [logging] section and the top-level
// parameters string. hub may be nil when no sink is configured.
func NewFromConfig(cfg *config.Config, hub *StreamHub) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Stream: hub, SinkVerbosity: VerbosityNormal})
	}
	verbosity, err := ParseVerbosity(cfg.Logging.Verbosity)
	if err != nil {
		return nil, err
	}
	outputs := []string{"stdout"}
	if path := strings.TrimSpace(cfg.Logging.File); path != "" {
		outputs = append(outputs, path)
	}
	return New(Options{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		OutputPaths:   outputs,
		Color:         cfg.Logging.Color,
		Stream:        hub,
		SinkVerbosity: verbosity,
		Parameters:    cfg.Parameters,
	})
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), value...)
}

func openWriters(paths []string) (io.Writer, []*os.File, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	var files []*os.File

	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		var file *os.File
		switch trimmed {
		case "stdout":
			file = os.Stdout
		case "stderr":
			file = os.Stderr
		default:
			if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, nil, fmt.Errorf("ensure log directory: %w", err)
				}
			}
			f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			file = f
		}
		writers = append(writers, file)
		files = append(files, file)
	}

	switch len(writers) {
	case 0:
		return os.Stdout, []*os.File{os.Stdout}, nil
	case 1:
		return writers[0], files, nil
	default:
		return io.MultiWriter(writers...), files, nil
	}
}

func shouldColorize(mode string, files []*os.File) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	}
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !isatty.IsTerminal(f.Fd()) {
			return false
		}
	}
	return true
}
