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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ollamaTracer = otel.Tracer("tagsearch.generator.ollama")

// OllamaClient generates text with a local Ollama server.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	opts       Options
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// NewOllamaClient creates an Ollama backend. opts.BaseURL is required;
// Model defaults to llama3.2.
func NewOllamaClient(opts Options) (*OllamaClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("ollama: base URL not set")
	}
	opts = opts.withDefaults("llama3.2")
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	slog.Info("Initializing Ollama client", "base_url", baseURL, "model", opts.Model)
	return &OllamaClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    baseURL,
		opts:       opts,
	}, nil
}

// Generate implements Generator.
func (o *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := ollamaTracer.Start(ctx, "OllamaClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.opts.Model))

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	payload := ollamaGenerateRequest{
		Model:  o.opts.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": o.opts.Temperature,
			"num_predict": o.opts.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request to Ollama: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("failed to create request to Ollama: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("ollama API call failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("failed to read response body from Ollama: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			var errResp struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(respBody, &errResp) == nil && strings.Contains(errResp.Error, "not found") {
				slog.Warn("Ollama model not found", "model", o.opts.Model)
				return fail(fmt.Errorf("%w: %q, run 'ollama pull %s'", ErrModelNotFound, o.opts.Model, o.opts.Model))
			}
		}
		return fail(fmt.Errorf("ollama failed with status %d: %s", resp.StatusCode, truncate(respBody, 256)))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fail(fmt.Errorf("failed to parse Ollama response: %w", err))
	}
	return strings.TrimSpace(out.Response), nil
}

// truncate bounds upstream bodies quoted in errors.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
