// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generator provides the text generators the suggestion pipeline
// calls, plus decorators that add rate limiting, caching and telemetry.
//
// Every backend satisfies Generator. Output is treated as untrusted text by
// callers; backends return it unmodified apart from surrounding whitespace.
//
// # Backends
//
//   - OpenAIClient: OpenAI chat completions (go-openai).
//   - GeminiClient: Google Gemini through langchaingo.
//   - AnthropicClient: Anthropic messages API over HTTP.
//   - OllamaClient: local Ollama /api/generate.
//   - MockGenerator: scripted responses for tests and the offline demo.
//
// # Decorators
//
//	gen = generator.NewCached(gen, time.Hour)
//	gen = generator.NewRateLimited(gen, 2, 4)
//	gen, _ = generator.NewInstrumented(gen, "openai")
//
// New builds this stack from a Config.
package generator
