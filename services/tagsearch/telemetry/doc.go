// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry bootstraps OpenTelemetry for tagsearch.
//
// Init installs a TracerProvider and MeterProvider chosen by Config. After it
// returns, otel.Tracer and otel.Meter calls anywhere in the process (the
// generator decorators in particular) report to the configured exporters.
//
// # Exporters
//
// Traces: "otlp" (gRPC), "stdout" (pretty JSON on stderr) or "none".
// Metrics: "prometheus" (dumped by WriteMetrics), "stdout" or "none".
//
// The defaults are "none" for both, so the CLI stays quiet unless telemetry
// is asked for in the config file or through the standard variables:
//
//   - OTEL_TRACES_EXPORTER
//   - OTEL_METRICS_EXPORTER
//   - OTEL_EXPORTER_OTLP_ENDPOINT
//   - TAGSEARCH_ENV
//
// # Thread Safety
//
// Init is called once at startup. Everything else is safe for concurrent use.
package telemetry
