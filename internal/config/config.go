package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Sink configures delivery of build records to a Seq-compatible server and
// an optional local CLEF file.
type Sink struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	BatchSize      int    `toml:"batch_size"`
	FlushInterval  int    `toml:"flush_interval"`  // milliseconds
	RequestTimeout int    `toml:"request_timeout"` // seconds
	QueueSize      int    `toml:"queue_size"`
	File           string `toml:"file"`
}

// Logging contains configuration for local log output.
type Logging struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	Verbosity string `toml:"verbosity"`
	Color     string `toml:"color"`
	File      string `toml:"file"`
}

// Listener configures the build event socket.
type Listener struct {
	// Bind is a host:port pair or a unix socket path.
	Bind     string `toml:"bind"`
	LockPath string `toml:"lock_path"`
}

// Config encapsulates all configuration values for buildlog.
//
// Parameters is the free-form logger parameter string handed over by the
// build host. It is attached verbatim to every record and never parsed.
type Config struct {
	Parameters string   `toml:"parameters"`
	Sink       Sink     `toml:"sink"`
	Logging    Logging  `toml:"logging"`
	Listener   Listener `toml:"listener"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("buildlog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SinkEnabled reports whether a Seq endpoint is configured.
func (c *Config) SinkEnabled() bool {
	return strings.TrimSpace(c.Sink.Endpoint) != ""
}

// FlushInterval is the Seq batch flush period.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Sink.FlushInterval) * time.Millisecond
}

// RequestTimeout bounds a single batch POST.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sink.RequestTimeout) * time.Second
}

// ListenNetwork splits Listener.Bind into a net.Listen network and address.
// Anything that looks like a filesystem path is a unix socket.
func (c *Config) ListenNetwork() (string, string) {
	bind := strings.TrimSpace(c.Listener.Bind)
	if rest, ok := strings.CutPrefix(bind, "unix:"); ok {
		return "unix", rest
	}
	if strings.ContainsRune(bind, filepath.Separator) {
		return "unix", bind
	}
	return "tcp", bind
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	if c.Sink.APIKey != "" {
		c.Sink.APIKey = "********"
	}
	return c
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
