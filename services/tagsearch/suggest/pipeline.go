// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/tagsearch/pkg/logging"
	"github.com/AleutianAI/tagsearch/services/tagsearch/generator"
	"github.com/AleutianAI/tagsearch/services/tagsearch/registry"
	"github.com/AleutianAI/tagsearch/services/tagsearch/telemetry"
)

// MaxTagsLimit is the hard cap on tags requested per suggestion.
const MaxTagsLimit = 5

// Config tunes a Pipeline.
type Config struct {
	// MaxTags is the number of tags requested and accepted per call.
	// Values outside 1..MaxTagsLimit select MaxTagsLimit.
	MaxTags int `yaml:"max_tags" validate:"gte=0,lte=5"`

	// Concurrency bounds in-flight generator calls in SuggestBatch.
	// Values below 1 select 4.
	Concurrency int `yaml:"concurrency" validate:"gte=0,lte=64"`
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() Config {
	return Config{MaxTags: MaxTagsLimit, Concurrency: 4}
}

// Pipeline runs tag suggestion against one registry.
//
// Thread Safety: Safe for concurrent use.
type Pipeline struct {
	reg    *registry.Registry
	logger *logging.Logger
	cfg    Config
	nonce  string
}

// Outcome describes one SuggestTags call.
type Outcome struct {
	// Handle is the registration the call targeted.
	Handle registry.Handle

	// Conforming is false when the generator reply did not match the
	// grammar, in which case no tags were considered.
	Conforming bool

	// Reason explains a non-conforming reply or a skipped call.
	Reason string

	// Accepted are the canonical tags merged into the registration. Tags
	// already present are included; merging is idempotent.
	Accepted []string

	// Dropped are the candidates that failed screening.
	Dropped []DroppedTag

	// Abandoned is true when the registration was deleted before the merge.
	Abandoned bool
}

// DroppedTag is a screened-out candidate.
type DroppedTag struct {
	Candidate string
	Reason    string
}

// NewPipeline creates a pipeline over reg.
//
// Inputs:
//
//	reg - Target registry. Must not be nil.
//	logger - Destination for pipeline logs. Nil selects logging.Default().
//	cfg - Pipeline settings.
//
// Outputs:
//
//	*Pipeline - Ready pipeline with a fresh fence nonce.
func NewPipeline(reg *registry.Registry, logger *logging.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxTags < 1 || cfg.MaxTags > MaxTagsLimit {
		cfg.MaxTags = MaxTagsLimit
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Pipeline{
		reg:    reg,
		logger: logger,
		cfg:    cfg,
		nonce:  uuid.NewString(),
	}
}

// SuggestTags asks gen for tags describing the registration and merges the
// valid ones.
//
// Description:
//
//	Reads the description, prompts gen, parses and screens the reply, then
//	adds each surviving tag through Registry.AddTag. Reply content never
//	causes an error: a non-conforming reply yields an Outcome with
//	Conforming false and no tags.
//
// Inputs:
//
//	ctx - Bounds the generator call.
//	h - Target registration.
//	gen - Text generator.
//
// Outputs:
//
//	Outcome - What was accepted and dropped.
//	error - Wraps registry.ErrNotFound if h is unknown when the call starts,
//	or ErrGenerator if gen fails. A registration deleted while gen runs is
//	reported through Outcome.Abandoned, not as an error.
func (p *Pipeline) SuggestTags(ctx context.Context, h registry.Handle, gen generator.Generator) (Outcome, error) {
	return p.suggest(ctx, h, gen, p.logger)
}

func (p *Pipeline) suggest(ctx context.Context, h registry.Handle, gen generator.Generator, logger *logging.Logger) (Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "tagsearch.suggest", "Pipeline.SuggestTags")
	defer span.End()
	logger = logger.With(append([]any{"handle", h.String()}, telemetry.TraceAttrs(ctx)...)...)

	out := Outcome{Handle: h}
	rec, err := p.reg.Lookup(h)
	if err != nil {
		RecordOutcome(outcomeNotFound)
		telemetry.RecordError(span, err)
		return out, err
	}
	if gen == nil {
		err := fmt.Errorf("%w: nil generator", ErrGenerator)
		RecordOutcome(outcomeGeneratorErr)
		telemetry.RecordError(span, err)
		return out, err
	}
	if strings.Contains(rec.Description, p.nonce) {
		out.Reason = "description contains the prompt fence"
		logger.Warn("Skipping suggestion", "reason", out.Reason)
		RecordOutcome(outcomeNonConforming)
		return out, nil
	}

	prompt := BuildPrompt(rec.Description, p.nonce, p.cfg.MaxTags)
	start := time.Now()
	raw, err := gen.Generate(ctx, prompt)
	RecordGeneratorLatency(time.Since(start))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGenerator, err)
		logger.Warn("Generator call failed", "error", err)
		RecordOutcome(outcomeGeneratorErr)
		telemetry.RecordError(span, err)
		return out, err
	}

	parsed := ParseResponse(raw, p.cfg.MaxTags)
	if !parsed.Conforming {
		out.Reason = parsed.Reason
		logger.Info("Discarded non-conforming generator reply", "reason", parsed.Reason, "reply_bytes", len(raw))
		RecordOutcome(outcomeNonConforming)
		return out, nil
	}
	out.Conforming = true

	accepted := make([]string, 0, len(parsed.Candidates))
	seen := make(map[string]struct{}, len(parsed.Candidates))
	for _, candidate := range parsed.Candidates {
		canonical, reason := ScreenCandidate(candidate)
		if reason != "" {
			logger.Debug("Dropped candidate tag", "candidate", candidate, "reason", reason)
			out.Dropped = append(out.Dropped, DroppedTag{Candidate: candidate, Reason: reason})
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		accepted = append(accepted, canonical)
	}
	RecordCandidates(len(accepted), len(out.Dropped))

	for _, tag := range accepted {
		err := p.reg.AddTag(h, tag)
		switch {
		case err == nil:
			out.Accepted = append(out.Accepted, tag)
		case errors.Is(err, registry.ErrNotFound):
			out.Abandoned = true
			out.Reason = "registration deleted before merge"
			logger.Info("Registration deleted during suggestion, skipping merge")
			RecordOutcome(outcomeAbandoned)
			return out, nil
		default:
			out.Dropped = append(out.Dropped, DroppedTag{Candidate: tag, Reason: err.Error()})
		}
	}

	if len(out.Accepted) == 0 {
		RecordOutcome(outcomeNone)
	} else {
		RecordOutcome(outcomeMerged)
	}
	logger.Debug("Suggestion merged", "accepted", out.Accepted, "dropped", len(out.Dropped))
	telemetry.SetSpanOK(span)
	return out, nil
}
