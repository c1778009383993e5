// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generator

import (
	"context"
	"fmt"
	"time"
)

// Config selects and tunes a backend plus its decorators.
type Config struct {
	// Backend is one of "openai", "gemini", "anthropic", "ollama", "mock".
	Backend string `yaml:"backend" validate:"required,oneof=openai gemini anthropic ollama mock"`

	// Model overrides the backend default model.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the backend endpoint. Required for ollama.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// Temperature is the sampling temperature.
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens" validate:"gte=0,lte=4096"`

	// Timeout bounds one backend call.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// Burst is the token bucket size for RateLimit.
	Burst int `yaml:"burst" validate:"gte=0"`

	// CacheTTL enables the response cache when positive.
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// MockResponse is the fixed reply of the mock backend.
	MockResponse string `yaml:"mock_response,omitempty"`
}

// RequiresAPIKey reports whether the backend needs a credential.
func (c Config) RequiresAPIKey() bool {
	switch c.Backend {
	case "openai", "gemini", "anthropic":
		return true
	default:
		return false
	}
}

func (c Config) options() Options {
	return Options{
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}

// New builds the configured backend and wraps it, innermost first, with
// the rate limiter, the response cache and instrumentation. Cache hits do
// not spend rate-limit tokens.
//
// Inputs:
//
//	ctx - Used during backend construction only.
//	cfg - Backend selection and tuning.
//	apiKey - Credential for hosted backends; ignored otherwise.
//
// Outputs:
//
//	Generator - The decorated backend.
//	error - ErrUnknownBackend, ErrMissingAPIKey or a construction failure.
func New(ctx context.Context, cfg Config, apiKey string) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Backend {
	case "openai":
		gen, err = NewOpenAIClient(apiKey, cfg.options())
	case "gemini":
		gen, err = NewGeminiClient(ctx, apiKey, cfg.options())
	case "anthropic":
		gen, err = NewAnthropicClient(apiKey, cfg.options())
	case "ollama":
		gen, err = NewOllamaClient(cfg.options())
	case "mock":
		mock := NewMockGenerator()
		if cfg.MockResponse != "" {
			mock.WithDefaultResponse(cfg.MockResponse)
		}
		gen = mock
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		gen = NewRateLimited(gen, cfg.RateLimit, cfg.Burst)
	}
	if cfg.CacheTTL > 0 {
		gen = NewCached(gen, cfg.CacheTTL)
	}
	instrumented, err := NewInstrumented(gen, cfg.Backend)
	if err != nil {
		return nil, err
	}
	return instrumented, nil
}
