package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	// LevelDiagnostic sits below debug and is only shown at diagnostic verbosity.
	LevelDiagnostic = slog.Level(-8)
	// LevelNormal sits between debug and info.
	LevelNormal = slog.Level(-2)
)

// Verbosity mirrors the build tool's logger verbosity switch.
type Verbosity uint8

const (
	VerbosityQuiet Verbosity = iota
	VerbosityMinimal
	VerbosityNormal
	VerbosityDetailed
	VerbosityDiagnostic
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityMinimal:
		return "minimal"
	case VerbosityNormal:
		return "normal"
	case VerbosityDetailed:
		return "detailed"
	case VerbosityDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// MinLevel is the lowest record level shown at this verbosity.
func (v Verbosity) MinLevel() slog.Level {
	switch v {
	case VerbosityQuiet:
		return slog.LevelWarn
	case VerbosityMinimal:
		return slog.LevelInfo
	case VerbosityDetailed:
		return slog.LevelDebug
	case VerbosityDiagnostic:
		return LevelDiagnostic
	default:
		return LevelNormal
	}
}

// ParseVerbosity accepts the long names and the single-letter forms
// (q, m, n, d, diag).
func ParseVerbosity(value string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "q", "quiet":
		return VerbosityQuiet, nil
	case "m", "minimal":
		return VerbosityMinimal, nil
	case "n", "normal", "":
		return VerbosityNormal, nil
	case "d", "detailed":
		return VerbosityDetailed, nil
	case "diag", "diagnostic":
		return VerbosityDiagnostic, nil
	default:
		return VerbosityNormal, fmt.Errorf("invalid verbosity %q (expected: quiet|minimal|normal|detailed|diagnostic)", value)
	}
}

// ParseLevel maps a level or verbosity name to a slog level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	}
	if v, err := ParseVerbosity(level); err == nil {
		return v.MinLevel()
	}
	return slog.LevelInfo
}

// LevelLabel is the short console label for a level.
func LevelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	case level >= LevelNormal:
		return "NORMAL"
	case level >= slog.LevelDebug:
		return "DEBUG"
	default:
		return "DIAG"
	}
}

// LevelName is the severity name sinks understand (Serilog/CLEF naming).
func LevelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "Error"
	case level >= slog.LevelWarn:
		return "Warning"
	case level >= slog.LevelInfo:
		return "Information"
	case level >= slog.LevelDebug:
		return "Debug"
	default:
		return "Verbose"
	}
}
