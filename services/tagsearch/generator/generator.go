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
	"errors"
	"time"
)

// Generator produces raw text for a prompt.
//
// Implementations must honour ctx cancellation and be safe for concurrent
// use. The returned text is untrusted.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrMissingAPIKey is returned when a hosted backend has no credential.
	ErrMissingAPIKey = errors.New("api key is missing")

	// ErrEmptyResponse is returned when a backend answers without any text.
	ErrEmptyResponse = errors.New("empty response from generator")

	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown generator backend")

	// ErrModelNotFound is returned when a local backend lacks the model.
	ErrModelNotFound = errors.New("model not found")
)

const (
	// DefaultTemperature keeps tag suggestions close to deterministic.
	DefaultTemperature = 0.2

	// DefaultMaxTokens bounds the reply; a conforming answer is one short line.
	DefaultMaxTokens = 64

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 60 * time.Second
)

// Options are the per-backend request settings.
type Options struct {
	// Model is the backend model id. Empty selects the backend default.
	Model string

	// BaseURL overrides the backend endpoint. Required for Ollama.
	BaseURL string

	// Temperature is the sampling temperature. Zero selects DefaultTemperature.
	Temperature float32

	// MaxTokens caps the completion length. Zero selects DefaultMaxTokens.
	MaxTokens int

	// Timeout bounds one HTTP call. Zero selects DefaultTimeout.
	Timeout time.Duration
}

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
