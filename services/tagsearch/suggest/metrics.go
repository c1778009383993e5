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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Tag Suggestion
// =============================================================================

// Outcome labels for suggestionsTotal.
const (
	outcomeMerged        = "merged"
	outcomeNone          = "none"
	outcomeNonConforming = "non_conforming"
	outcomeAbandoned     = "abandoned"
	outcomeNotFound      = "not_found"
	outcomeGeneratorErr  = "generator_error"
)

var (
	// suggestionsTotal counts SuggestTags calls.
	// Labels: outcome (merged, none, non_conforming, abandoned, not_found, generator_error)
	suggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagsearch",
		Subsystem: "suggest",
		Name:      "requests_total",
		Help:      "Total tag suggestion requests by outcome",
	}, []string{"outcome"})

	// candidatesTotal counts parsed candidate tags.
	// Labels: result (accepted, dropped)
	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagsearch",
		Subsystem: "suggest",
		Name:      "candidates_total",
		Help:      "Candidate tags by screening result",
	}, []string{"result"})

	// generatorLatency measures the generator round trip.
	generatorLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tagsearch",
		Subsystem: "suggest",
		Name:      "generator_latency_seconds",
		Help:      "Generator call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// batchSize tracks the number of handles per SuggestBatch call.
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tagsearch",
		Subsystem: "suggest",
		Name:      "batch_size",
		Help:      "Handles per suggestion batch",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// RecordOutcome increments the request counter for one SuggestTags call.
func RecordOutcome(outcome string) {
	suggestionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCandidates adds screened candidate counts.
func RecordCandidates(accepted, dropped int) {
	if accepted > 0 {
		candidatesTotal.WithLabelValues("accepted").Add(float64(accepted))
	}
	if dropped > 0 {
		candidatesTotal.WithLabelValues("dropped").Add(float64(dropped))
	}
}

// RecordGeneratorLatency observes one generator call.
func RecordGeneratorLatency(d time.Duration) {
	generatorLatency.Observe(d.Seconds())
}

// RecordBatchSize observes one batch.
func RecordBatchSize(n int) {
	batchSize.Observe(float64(n))
}
