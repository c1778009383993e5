// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry associates caller-owned resources with a description and
// a set of searchable tags.
//
// A Registry is an explicit value owned by the caller; there is no package
// level state. Each registration is addressed through an opaque Handle made
// of an arena slot and a generation counter. Deleting a registration bumps
// the slot generation, so every copy of the old handle fails with
// ErrNotFound from then on, even after the slot is reused.
//
// # Tags
//
// Every tag, whether added manually or suggested by a generator, passes
// through NormalizeTag before it touches registry state:
//
//   - leading/trailing whitespace is trimmed
//   - empty tags, control characters (newline, tab, ...) are rejected
//   - interior whitespace collapses to one space
//   - the result is NFC-normalized and case-folded
//   - the canonical form has at most two words and at most 64 runes
//
// Tags are therefore compared case-insensitively: "Jazz" and "jazz" are the
// same tag, stored as "jazz".
//
// # Errors
//
//   - ErrInvalidInput: a description or tag violates the shape rules.
//   - ErrNotFound: the handle is unknown or was deleted.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Every mutation is one
// read-then-write of a single record under the registry lock, and tag
// insertion is idempotent, so concurrent writers never lose or duplicate
// a tag.
package registry
