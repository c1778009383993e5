// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suggest derives tags for registrations from an external text
// generator and merges the ones that survive validation.
//
// # Pipeline
//
//  1. Resolve the handle; a missing registration is ErrNotFound.
//  2. Build a prompt that fences the description as data between markers
//     carrying a random nonce, and demands one line of at most MaxTags short
//     tags or the word NONE.
//  3. Call the generator. This is the only blocking step.
//  4. Parse the reply with a strict grammar. A reply that does not conform
//     contributes zero tags and is not an error.
//  5. Screen each candidate with registry.NormalizeTag and a control-marker
//     filter on the whole candidate. Failures are dropped silently.
//  6. Merge survivors through Registry.AddTag. A registration deleted while
//     the generator was running is skipped.
//
// The generator reply is never fed back into a prompt and never interpreted.
//
// # Errors
//
// Only structural failures surface: registry.ErrNotFound for an unknown
// handle and ErrGenerator when the generator call fails. Everything about
// the content of a reply is absorbed into Outcome.
//
// # Thread Safety
//
// Pipeline is safe for concurrent use. SuggestBatch fans out over a bounded
// worker group and joins every task before returning.
package suggest
