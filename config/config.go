// Package config loads the service configuration from a YAML or JSON file
// with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/telematics/core/alert"
	"github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/notify"
	"github.com/kilianp07/telematics/core/retention"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nesting levels are separated by
// a double underscore: TELEMATICS_HTTP__API_KEY sets http.api_key.
const EnvPrefix = "TELEMATICS_"

type Config struct {
	HTTP      HTTPConfig        `json:"http"`
	Alerts    alert.Config      `json:"alerts"`
	Retention retention.Config  `json:"retention"`
	Notify    notify.Config     `json:"notify"`
	MQTT      mqtt.Config       `json:"mqtt"`
	Ingest    mqtt.IngestConfig `json:"ingest"`
	Metrics   metrics.Config    `json:"metrics"`
	Logging   logger.Config     `json:"logging"`
	Store     StoreConfig       `json:"store"`
}

// Load reads path and applies environment overrides, defaults and
// validation. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.HTTP.SetDefaults()
	c.Alerts.SetDefaults()
	c.Retention.SetDefaults()
	c.Notify.SetDefaults()
	c.Ingest.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Store.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	validators := []func() error{
		c.HTTP.Validate,
		c.Alerts.Validate,
		c.Retention.Validate,
		c.Notify.Validate,
		c.Logging.Validate,
		c.Store.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	if c.Ingest.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("ingest: enabled without mqtt.broker")
	}
	return nil
}
