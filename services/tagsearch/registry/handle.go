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

import "fmt"

// Handle identifies one registration.
//
// Handles are small comparable values and may be used as map keys. The zero
// Handle never refers to a registration.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// String renders the handle for logs, e.g. "h3.2" for slot 3, generation 2.
func (h Handle) String() string {
	if h.IsZero() {
		return "h<nil>"
	}
	return fmt.Sprintf("h%d.%d", h.slot, h.gen)
}
