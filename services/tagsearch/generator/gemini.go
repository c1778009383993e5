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
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiClient generates text with Google Gemini through langchaingo.
type GeminiClient struct {
	model llms.Model
	opts  Options
}

// NewGeminiClient creates a Gemini backend.
//
// Inputs:
//
//	ctx - Used while the underlying client is constructed.
//	apiKey - Google AI Studio key. Must not be empty.
//	opts - Request options; Model defaults to gemini-2.0-flash.
//
// Outputs:
//
//	*GeminiClient - Ready client.
//	error - ErrMissingAPIKey, or the langchaingo construction error.
func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	opts = opts.withDefaults("gemini-2.0-flash")

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	slog.Info("Initializing Gemini client", "model", opts.Model)
	return newGeminiWithModel(llm, opts), nil
}

func newGeminiWithModel(model llms.Model, opts Options) *GeminiClient {
	return &GeminiClient{model: model, opts: opts}
}

// Generate implements Generator.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Debug("Generating text via Gemini", "model", g.opts.Model)
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithTemperature(float64(g.opts.Temperature)),
		llms.WithMaxTokens(g.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}
