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
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// openAISystemPrompt frames the chat. The task itself is in the user prompt.
const openAISystemPrompt = "You label comments with short topical tags and follow the output format exactly."

// OpenAIClient generates text with the OpenAI chat completions API, or any
// server that speaks it when Options.BaseURL is set.
type OpenAIClient struct {
	client *openai.Client
	opts   Options
}

// NewOpenAIClient creates an OpenAI backend.
//
// Inputs:
//
//	apiKey - Bearer token. Must not be empty.
//	opts - Request options; Model defaults to gpt-4o-mini.
//
// Outputs:
//
//	*OpenAIClient - Ready client.
//	error - ErrMissingAPIKey when apiKey is empty.
func NewOpenAIClient(apiKey string, opts Options) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	opts = opts.withDefaults("gpt-4o-mini")

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	slog.Info("Initializing OpenAI client", "model", opts.Model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}, nil
}

// Generate implements Generator.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Debug("Generating text via OpenAI", "model", o.opts.Model)
	req := openai.ChatCompletionRequest{
		Model: o.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         o.opts.Temperature,
		MaxCompletionTokens: o.opts.MaxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
