// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"fmt"
	"strings"
)

// Render lists every live registration in registration order.
//
// Description:
//
//	Output is deterministic for a given registry state. Each entry shows a
//	1-based position, the description (continuation lines indented) and the
//	tags in insertion order. Handles are not shown.
//
// Example output:
//
//	1. First comment about music theory
//	   tags: music, theory
//	2. Second comment about music composition
//	   tags: (none)
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.liveLocked()
	if len(entries) == 0 {
		return "(no registrations)\n"
	}

	var b strings.Builder
	for i, e := range entries {
		prefix := fmt.Sprintf("%d. ", i+1)
		indent := strings.Repeat(" ", len(prefix))
		lines := strings.Split(e.rec.description, "\n")
		b.WriteString(prefix)
		b.WriteString(strings.TrimRight(lines[0], "\r"))
		b.WriteByte('\n')
		for _, line := range lines[1:] {
			b.WriteString(indent)
			b.WriteString(strings.TrimRight(line, "\r"))
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteString("tags: ")
		if len(e.rec.order) == 0 {
			b.WriteString("(none)")
		} else {
			b.WriteString(strings.Join(e.rec.order, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
