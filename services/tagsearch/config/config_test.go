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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Defaults and validation
// =============================================================================

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mock", cfg.Generator.Backend)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, 5, cfg.Suggest.MaxTags)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Generator.Backend = "telepathy" }},
		{name: "temperature too high", mutate: func(c *Config) { c.Generator.Temperature = 3 }},
		{name: "max tags too high", mutate: func(c *Config) { c.Suggest.MaxTags = 6 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "bad base url", mutate: func(c *Config) { c.Generator.BaseURL = "not a url" }},
		{name: "ollama without url", mutate: func(c *Config) { c.Generator.Backend = "ollama" }},
		{name: "rate limit without burst", mutate: func(c *Config) { c.Generator.Burst = 0 }},
		{name: "bad trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_OllamaWithURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.Backend = "ollama"
	cfg.Generator.BaseURL = "http://localhost:11434"
	assert.NoError(t, cfg.Validate())
}

func TestEnvVarAndSecretName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.Backend = "openai"
	assert.Equal(t, "OPENAI_API_KEY", cfg.EnvVar())
	assert.Equal(t, "openai_api_key", cfg.SecretName())

	cfg.Generator.Backend = "gemini"
	assert.Equal(t, "GEMINI_API_KEY", cfg.EnvVar())

	cfg.Credentials.APIKeyEnv = "MY_KEY"
	cfg.Credentials.SecretName = "custom"
	assert.Equal(t, "MY_KEY", cfg.EnvVar())
	assert.Equal(t, "custom", cfg.SecretName())
}

// =============================================================================
// Loader
// =============================================================================

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tagsearch", "tagsearch.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Generator.Backend)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk Config
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, "mock", onDisk.Generator.Backend)
	assert.Equal(t, time.Hour, onDisk.Generator.CacheTTL)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
generator:
  backend: ollama
  base_url: http://localhost:11434
  model: llama3.2
  timeout: 30s
suggest:
  max_tags: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Generator.Backend)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, 3, cfg.Suggest.MaxTags)
	assert.Equal(t, DefaultConfig().Suggest.Concurrency, cfg.Suggest.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("generator: [unterminated"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("generator:\n  backend: carrier-pigeon\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// =============================================================================
// Secrets
// =============================================================================

func TestResolveAPIKey_NotNeeded(t *testing.T) {
	secret, err := DefaultConfig().ResolveAPIKey()
	require.NoError(t, err)
	assert.Nil(t, secret)
}

func TestResolveAPIKey_FromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "  sk-env \n")
	cfg := DefaultConfig()
	cfg.Generator.Backend = "openai"

	secret, err := cfg.ResolveAPIKey()
	require.NoError(t, err)

	var got string
	require.NoError(t, secret.Use(func(v string) error {
		got = v
		return nil
	}))
	assert.Equal(t, "sk-env", got)
}

func TestResolveAPIKey_FromSecretsDir(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anthropic_api_key"), []byte("sk-file\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Generator.Backend = "anthropic"
	cfg.Credentials.SecretsDir = dir

	secret, err := cfg.ResolveAPIKey()
	require.NoError(t, err)
	require.NoError(t, secret.Use(func(v string) error {
		assert.Equal(t, "sk-file", v)
		return nil
	}))
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg := DefaultConfig()
	cfg.Generator.Backend = "gemini"
	cfg.Credentials.SecretsDir = t.TempDir()

	_, err := cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Credentials.SecretsDir, "gemini_api_key"), []byte(" \n"), 0o600))
	_, err = cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSecret_UsePropagatesError(t *testing.T) {
	secret, err := NewSecret([]byte("k"))
	require.NoError(t, err)
	boom := errors.New("boom")
	assert.ErrorIs(t, secret.Use(func(string) error { return boom }), boom)

	var nilSecret *Secret
	assert.ErrorIs(t, nilSecret.Use(func(string) error { return nil }), ErrNoAPIKey)

	_, err = NewSecret(nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
