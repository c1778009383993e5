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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tagsearch/services/tagsearch/telemetry"
)

const instrumentationName = "tagsearch.generator"

// Instrumented records a span, a request counter and a latency histogram
// for every call to the wrapped generator. Prompts and responses are not
// recorded, only their sizes.
type Instrumented struct {
	next     Generator
	backend  string
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewInstrumented wraps next using the global otel providers, which
// telemetry.Init configures.
func NewInstrumented(next Generator, backend string) (*Instrumented, error) {
	return NewInstrumentedWith(next, backend, otel.GetTracerProvider(), otel.GetMeterProvider())
}

// NewInstrumentedWith wraps next using explicit providers.
func NewInstrumentedWith(next Generator, backend string, tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumented, error) {
	meter := mp.Meter(instrumentationName)
	requests, err := meter.Int64Counter("tagsearch.generator.requests",
		metric.WithDescription("Generator calls by backend and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	latency, err := meter.Float64Histogram("tagsearch.generator.duration",
		metric.WithDescription("Generator call latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}
	return &Instrumented{
		next:     next,
		backend:  backend,
		tracer:   tp.Tracer(instrumentationName),
		requests: requests,
		latency:  latency,
	}, nil
}

// Generate implements Generator.
func (i *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := i.tracer.Start(ctx, "Generator.Generate",
		trace.WithAttributes(
			attribute.String("generator.backend", i.backend),
			attribute.Int("generator.prompt_bytes", len(prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	elapsed := time.Since(start).Seconds()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		telemetry.RecordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("generator.response_bytes", len(out)))
		telemetry.SetSpanOK(span)
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", i.backend),
		attribute.String("outcome", outcome),
	)
	i.requests.Add(ctx, 1, attrs)
	i.latency.Record(ctx, elapsed, attrs)
	return out, err
}
