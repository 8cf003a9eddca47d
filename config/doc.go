// Package config loads layered configuration for powerflow commands.
//
// A YAML file (cmd/<name>/config.yml, config.yml or <name>.yml in the usual
// locations, or an explicit path) is read with Viper. Variables carrying the
// command's prefix are layered on top, from the process environment and then
// from an optional .env file where the process does not set them. UPPER_SNAKE
// names bind to nested keys, so POWERFLOW_TOOL_TIMEOUT overrides tool.timeout.
//
// Project configs embed ServiceConfig:
//
//	type FlowConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Tool tool.Config `yaml:"tool" mapstructure:"tool"`
//	}
package config
