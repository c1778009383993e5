// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/tagsearch/services/tagsearch/generator"
	"github.com/AleutianAI/tagsearch/services/tagsearch/suggest"
	"github.com/AleutianAI/tagsearch/services/tagsearch/telemetry"
)

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the on-disk tagsearch configuration.
type Config struct {
	// Version is the config schema version.
	Version string `yaml:"version"`

	// Generator selects the text generation backend.
	Generator generator.Config `yaml:"generator"`

	// Credentials tells where the backend API key lives.
	Credentials Credentials `yaml:"credentials"`

	// Suggest tunes the suggestion pipeline.
	Suggest suggest.Config `yaml:"suggest"`

	// Logging controls log output.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry controls tracing and metrics export.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Credentials locates the backend API key. The environment variable wins
// over the secrets file.
type Credentials struct {
	// APIKeyEnv names the environment variable holding the key. Empty
	// selects the backend convention, e.g. OPENAI_API_KEY.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// SecretName is the file name under SecretsDir. Empty selects the
	// lowercase form of the environment variable name.
	SecretName string `yaml:"secret_name,omitempty"`

	// SecretsDir is the mounted secrets directory.
	SecretsDir string `yaml:"secrets_dir"`
}

// LoggingConfig controls pkg/logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`

	// Dir enables daily JSON log files in this directory.
	Dir string `yaml:"dir,omitempty"`
}

// DefaultConfig returns a config that runs fully offline with the mock
// backend.
func DefaultConfig() Config {
	return Config{
		Version: CurrentVersion,
		Generator: generator.Config{
			Backend:     "mock",
			Temperature: generator.DefaultTemperature,
			MaxTokens:   generator.DefaultMaxTokens,
			Timeout:     generator.DefaultTimeout,
			RateLimit:   2,
			Burst:       4,
			CacheTTL:    time.Hour,
		},
		Credentials: Credentials{
			SecretsDir: "/run/secrets",
		},
		Suggest: suggest.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// EnvVar returns the environment variable the API key is read from.
func (c Config) EnvVar() string {
	if c.Credentials.APIKeyEnv != "" {
		return c.Credentials.APIKeyEnv
	}
	switch c.Generator.Backend {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "TAGSEARCH_API_KEY"
	}
}

// SecretName returns the file name looked up under SecretsDir.
func (c Config) SecretName() string {
	if c.Credentials.SecretName != "" {
		return c.Credentials.SecretName
	}
	return strings.ToLower(c.EnvVar())
}

var validate = validator.New()

// Validate checks field ranges and cross-field rules.
//
// Outputs:
//
//	error - Wraps ErrInvalidConfig naming the first offending field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Generator.Backend == "ollama" && c.Generator.BaseURL == "" {
		return fmt.Errorf("%w: generator.base_url is required for the ollama backend", ErrInvalidConfig)
	}
	if c.Generator.RateLimit > 0 && c.Generator.Burst < 1 {
		return fmt.Errorf("%w: generator.burst must be at least 1 when rate_limit is set", ErrInvalidConfig)
	}
	return nil
}
