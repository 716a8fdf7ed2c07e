package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

var (
	validLevels      = []string{"debug", "info", "warn", "warning", "error", "q", "quiet", "m", "minimal", "n", "normal", "d", "detailed", "diag", "diagnostic"}
	validVerbosities = []string{"q", "quiet", "m", "minimal", "n", "normal", "d", "detailed", "diag", "diagnostic"}
	validFormats     = []string{"console", "json"}
	validColors      = []string{"auto", "always", "never"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSink(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateListener(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSink() error {
	if c.SinkEnabled() {
		u, err := url.Parse(c.Sink.Endpoint)
		if err != nil {
			return fmt.Errorf("sink.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("sink.endpoint must be an http or https URL, got %q", c.Sink.Endpoint)
		}
		if u.Host == "" {
			return fmt.Errorf("sink.endpoint is missing a host: %q", c.Sink.Endpoint)
		}
	}
	if c.Sink.BatchSize < 0 {
		return errors.New("sink.batch_size must be positive")
	}
	if c.Sink.FlushInterval < 0 {
		return errors.New("sink.flush_interval must be positive")
	}
	if c.Sink.RequestTimeout < 0 {
		return errors.New("sink.request_timeout must be positive")
	}
	if c.Sink.QueueSize < c.Sink.BatchSize {
		return fmt.Errorf("sink.queue_size (%d) must be at least sink.batch_size (%d)", c.Sink.QueueSize, c.Sink.BatchSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if !slices.Contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	if !slices.Contains(validVerbosities, c.Logging.Verbosity) {
		return fmt.Errorf("logging.verbosity: unsupported value %q (expected quiet|minimal|normal|detailed|diagnostic)", c.Logging.Verbosity)
	}
	if !slices.Contains(validColors, c.Logging.Color) {
		return fmt.Errorf("logging.color: unsupported value %q (expected auto, always or never)", c.Logging.Color)
	}
	return nil
}

func (c *Config) validateListener() error {
	network, addr := c.ListenNetwork()
	if addr == "" {
		return errors.New("listener.bind must be set")
	}
	if network == "tcp" {
		u, err := url.Parse("tcp://" + addr)
		if err != nil || u.Port() == "" {
			return fmt.Errorf("listener.bind: expected host:port or a socket path, got %q", addr)
		}
	}
	return nil
}
