package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSink()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSink() {
	if value, ok := os.LookupEnv(envSinkEndpoint); ok && strings.TrimSpace(value) != "" {
		c.Sink.Endpoint = value
	}
	if value, ok := os.LookupEnv(envSinkAPIKey); ok && strings.TrimSpace(value) != "" {
		c.Sink.APIKey = value
	}
	c.Sink.Endpoint = strings.TrimRight(strings.TrimSpace(c.Sink.Endpoint), "/")
	c.Sink.APIKey = strings.TrimSpace(c.Sink.APIKey)
	if c.Sink.BatchSize == 0 {
		c.Sink.BatchSize = defaultBatchSize
	}
	if c.Sink.FlushInterval == 0 {
		c.Sink.FlushInterval = defaultFlushInterval
	}
	if c.Sink.RequestTimeout == 0 {
		c.Sink.RequestTimeout = defaultRequestTimeout
	}
	if c.Sink.QueueSize == 0 {
		c.Sink.QueueSize = defaultQueueSize
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Sink.File, err = expandPath(strings.TrimSpace(c.Sink.File)); err != nil {
		return fmt.Errorf("sink.file: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}

	c.Listener.Bind = strings.TrimSpace(c.Listener.Bind)
	if c.Listener.Bind == "" {
		c.Listener.Bind = defaultListenerBind
	}
	if network, addr := c.ListenNetwork(); network == "unix" {
		if addr, err = expandPath(addr); err != nil {
			return fmt.Errorf("listener.bind: %w", err)
		}
		c.Listener.Bind = addr
	}
	if strings.TrimSpace(c.Listener.LockPath) == "" {
		c.Listener.LockPath = defaultListenerLock
	}
	if c.Listener.LockPath, err = expandPath(c.Listener.LockPath); err != nil {
		return fmt.Errorf("listener.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Verbosity = strings.ToLower(strings.TrimSpace(c.Logging.Verbosity))
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = defaultLogVerbosity
	}
	c.Logging.Color = strings.ToLower(strings.TrimSpace(c.Logging.Color))
	if c.Logging.Color == "" {
		c.Logging.Color = defaultLogColor
	}
}
