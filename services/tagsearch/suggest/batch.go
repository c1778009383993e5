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

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tagsearch/services/tagsearch/generator"
	"github.com/AleutianAI/tagsearch/services/tagsearch/registry"
)

// BatchResult is the result for one handle of a batch.
type BatchResult struct {
	Handle  registry.Handle
	Outcome Outcome
	Err     error
}

// SuggestBatch runs SuggestTags for every handle and waits for all of them.
//
// Description:
//
//	At most Config.Concurrency generator calls are in flight. A failure for
//	one handle never cancels or alters another. Results are returned in
//	input order, so the output is deterministic regardless of completion
//	order. All log lines of the batch carry the same batch_id.
//
// Inputs:
//
//	ctx - Shared by every call; cancelling it fails the pending ones with
//	ErrGenerator.
//	gen - Text generator shared by every call.
//	handles - Targets. Duplicates are processed independently.
//
// Outputs:
//
//	[]BatchResult - One entry per input handle, same order.
func (p *Pipeline) SuggestBatch(ctx context.Context, gen generator.Generator, handles []registry.Handle) []BatchResult {
	batchID := uuid.NewString()
	logger := p.logger.With("batch_id", batchID)
	logger.Info("Suggestion batch started", "size", len(handles), "concurrency", p.cfg.Concurrency)
	RecordBatchSize(len(handles))

	results := make([]BatchResult, len(handles))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, h := range handles {
		g.Go(func() error {
			out, err := p.suggest(ctx, h, gen, logger)
			results[i] = BatchResult{Handle: h, Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("Suggestion batch finished", "size", len(handles), "failed", failed)
	return results
}
