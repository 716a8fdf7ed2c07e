package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"buildlog/internal/config"
)

type globalFlags struct {
	config     string
	verbosity  string
	endpoint   string
	parameters string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and layers the global flags on
// top of it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.verbosity); v != "" {
			cfg.Logging.Verbosity = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.endpoint); v != "" {
			cfg.Sink.Endpoint = strings.TrimRight(v, "/")
		}
		if c.flags.parameters != "" {
			cfg.Parameters = c.flags.parameters
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
