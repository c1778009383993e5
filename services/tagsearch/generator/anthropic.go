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
)

const (
	anthropicAPIVersion  = "2023-06-01"
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicClient generates text with the Anthropic messages API.
type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
	url        string
	opts       Options
}

// NewAnthropicClient creates an Anthropic backend. opts.BaseURL, when set,
// replaces the full messages endpoint URL.
func NewAnthropicClient(apiKey string, opts Options) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	opts = opts.withDefaults("claude-3-5-haiku-latest")
	url := anthropicMessagesURL
	if opts.BaseURL != "" {
		url = opts.BaseURL
	}
	slog.Info("Initializing Anthropic client", "model", opts.Model)
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiKey:     apiKey,
		url:        url,
		opts:       opts,
	}, nil
}

// Generate implements Generator.
func (a *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	temp := a.opts.Temperature
	payload := anthropicRequest{
		Model:       a.opts.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		System:      openAISystemPrompt,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: &temp,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	slog.Debug("Sending request to Anthropic", "model", a.opts.Model)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(text.String()), nil
}
