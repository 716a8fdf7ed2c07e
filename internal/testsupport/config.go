package testsupport

import (
	"path/filepath"
	"testing"

	"buildlog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test. The
// listener binds a socket under the temp dir and no sink is enabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Listener.Bind = filepath.Join(base, "listener.sock")
	cfgVal.Listener.LockPath = filepath.Join(base, "listener.lock")
	cfgVal.Logging.Color = "never"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSeq points the sink at a Seq endpoint.
func WithSeq(endpoint, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sink.Endpoint = endpoint
		b.cfg.Sink.APIKey = apiKey
	}
}

// WithClefFile enables the CLEF file sink at name under the temp dir.
func WithClefFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sink.File = filepath.Join(b.baseDir, name)
	}
}

// WithVerbosity sets the sink verbosity.
func WithVerbosity(v string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Verbosity = v
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Listener.LockPath)
}
