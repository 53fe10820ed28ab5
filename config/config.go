package config

import (
	"fmt"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/generation"
	"github.com/kbukum/flowkit/intake"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/repair"
	"github.com/kbukum/flowkit/saga"
	"github.com/kbukum/flowkit/store"
	"github.com/kbukum/flowkit/template"
)

// Config is the full flowkit service configuration tree.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config           `yaml:"logging" mapstructure:"logging"`
	Tracing    observability.Config    `yaml:"tracing" mapstructure:"tracing"`
	Server     intake.Config           `yaml:"server" mapstructure:"server"`
	Engine     engine.Config           `yaml:"engine" mapstructure:"engine"`
	Catalog    catalog.Config          `yaml:"catalog" mapstructure:"catalog"`
	Generation generation.Config       `yaml:"generation" mapstructure:"generation"`
	Providers  []generation.HTTPConfig `yaml:"providers" mapstructure:"providers"`
	Template   template.Weights        `yaml:"template" mapstructure:"template"`
	Repair     repair.Config           `yaml:"repair" mapstructure:"repair"`
	Saga       saga.Config             `yaml:"saga" mapstructure:"saga"`
	Pipeline   pipeline.Config         `yaml:"pipeline" mapstructure:"pipeline"`
	Store      store.Config            `yaml:"store" mapstructure:"store"`
}

// ApplyDefaults applies default values to the whole tree.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "flowkitd"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}

	c.Logging.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	c.Tracing.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Catalog.ApplyDefaults()
	c.Generation.ApplyDefaults()
	if c.Template == (template.Weights{}) {
		c.Template = template.DefaultWeights()
	}
	c.Repair.ApplyDefaults()
	c.Saga.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Store.ApplyDefaults()
}

// Validate validates the configuration tree.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config: environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: logging: %w", err)
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("config: engine.base_url is required")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one generation provider is required")
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: providers[%d].name is required", i)
		}
		if p.BaseURL == "" {
			return fmt.Errorf("config: providers[%d].base_url is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config: store: %w", err)
	}
	return nil
}
