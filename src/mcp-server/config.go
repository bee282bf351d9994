// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// configSchema is the JSON Schema that JSON configuration files are
// validated against before unmarshaling. YAML files skip schema validation
// and rely on strict struct decoding instead.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"defaults": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"rootsFile": {"type": "string"},
				"submit": {"type": "boolean"},
				"maxChainLength": {"type": "integer", "minimum": 0}
			}
		},
		"logging": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"verbose": {"type": "boolean"}
			}
		}
	}
}`

// Config represents the MCP server configuration structure.
// It contains default settings for submission checking and logging.
//
// The configuration can be loaded from a JSON or YAML file specified by the
// MCP_CT_CONFIG_FILE environment variable, with defaults applied for any
// missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Defaults: Default settings for submission checking operations
	Defaults struct {
		// RootsFile: PEM bundle of trust anchors loaded at startup
		// (can also be set via the CT_ROOTS_FILE env var)
		RootsFile string `json:"rootsFile" yaml:"rootsFile"`
		// Submit: Whether check tools record accepted chains in the
		// in-memory log store by default
		Submit bool `json:"submit" yaml:"submit"`
		// MaxChainLength: Maximum number of certificates accepted in a
		// submitted chain; 0 means no limit
		MaxChainLength int `json:"maxChainLength" yaml:"maxChainLength"`
	} `json:"defaults" yaml:"defaults"`

	// Logging: Structured logging settings for the stderr log stream
	Logging struct {
		// Verbose: Emit structured JSON logs to stderr instead of staying silent
		Verbose bool `json:"verbose" yaml:"verbose"`
	} `json:"logging" yaml:"logging"`
}

// detectConfigFormat determines the configuration file format based on file extension.
// It supports .json, .yaml, and .yml extensions for flexible configuration management.
//
// Parameters:
//   - configPath: Path to the configuration file
//
// Returns:
//   - configFormat: The detected format (configFormatJSON or configFormatYAML)
//
// The function uses case-insensitive extension matching for cross-platform compatibility.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
// It supports both JSON and YAML formats for configuration flexibility.
//
// Parameters:
//   - data: Raw configuration file contents
//   - config: Pointer to Config struct to populate
//   - format: The configuration format (configFormatJSON or configFormatYAML)
//
// Returns:
//   - error: Any validation or parsing error encountered during unmarshaling
//
// JSON configurations are validated against the embedded schema before
// unmarshaling so that typos in field names surface as errors rather than
// silently falling back to defaults.
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(configSchema),
			gojsonschema.NewBytesLoader(data),
		)
		if err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
		if !result.Valid() {
			errs := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				errs = append(errs, desc.String())
			}
			return fmt.Errorf("invalid JSON config file: %s", strings.Join(errs, "; "))
		}
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// loadConfig loads MCP server configuration from a JSON or YAML file or applies defaults.
//
// Parameters:
//   - configPath: Path to the configuration file (optional, can be empty)
//     Supported formats: .json, .yaml, .yml
//
// Returns:
//   - A pointer to the loaded Config struct with defaults applied
//   - An error if the configuration file cannot be read, validated, or parsed
//
// Configuration Priority:
//  1. Default values are set
//  2. Config file values override defaults (if file exists and is valid)
//  3. Environment variables override config file values (CT_ROOTS_FILE)
func loadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.Defaults.Submit = true
	config.Defaults.MaxChainLength = 0

	// Try to load from file if path is provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Detect format and unmarshal accordingly
		format := detectConfigFormat(configPath)
		if err := unmarshalConfig(data, config, format); err != nil {
			return nil, err
		}

		if config.Defaults.MaxChainLength < 0 {
			config.Defaults.MaxChainLength = 0
		}
	}

	// Override the roots bundle from the environment when set
	if roots := os.Getenv("CT_ROOTS_FILE"); roots != "" {
		config.Defaults.RootsFile = roots
	}

	return config, nil
}
