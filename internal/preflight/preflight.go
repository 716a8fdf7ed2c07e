package preflight

import (
	"context"
	"path/filepath"

	"buildlog/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.SinkEnabled() {
		results = append(results, CheckSeq(ctx, cfg.Sink.Endpoint, cfg.Sink.APIKey, cfg.RequestTimeout()))
	}
	if cfg.Sink.File != "" {
		results = append(results, CheckWritableParent("CLEF file", cfg.Sink.File))
	}
	if cfg.Logging.File != "" {
		results = append(results, CheckWritableParent("Log file", cfg.Logging.File))
	}
	if network, addr := cfg.ListenNetwork(); network == "unix" {
		results = append(results, CheckWritableParent("Listener socket", addr))
	}
	if cfg.Listener.LockPath != "" {
		results = append(results, CheckWritableParent("Listener lock", filepath.Clean(cfg.Listener.LockPath)))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
