// Package config defines the configuration schema for deepsearch.
//
// JSON keys use camelCase so the valves read the same way they are shown
// in the host settings UI.
package config

import (
	"github.com/crystaldolphin/deepsearch/internal/config/gateway"
	"github.com/crystaldolphin/deepsearch/internal/config/tool"
)

// Config is the root configuration object, loaded from ~/.deepsearch/config.json.
type Config struct {
	Tools   tool.ToolsConfig      `json:"tools" yaml:"tools"`
	Gateway gateway.GatewayConfig `json:"gateway" yaml:"gateway"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Tools:   tool.DefaultToolConfigs(),
		Gateway: gateway.DefaultGatewayConfig(),
	}
}

// DeepSearch returns the DeepSearch valves.
func (c *Config) DeepSearch() tool.DeepSearchConfig {
	return c.Tools.DeepSearch
}

// Validate checks the DeepSearch valves and the gateway settings.
func (c *Config) Validate() error {
	if err := c.Tools.DeepSearch.Validate(); err != nil {
		return err
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return &tool.InvalidValveError{Valve: "gateway.port", Value: c.Gateway.Port, Reason: "must be a TCP port"}
	}
	return nil
}
