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
	"math"
	"sort"
	"sync"
)

// Record is a read-only snapshot of one registration.
//
// Tags are listed in insertion order; the order carries no meaning.
// Mutating the snapshot does not affect the registry.
type Record struct {
	Resource    any
	Description string
	Tags        []string
}

// HasTag reports whether the record carries tag after normalization.
func (r Record) HasTag(tag string) bool {
	canonical, err := NormalizeTag(tag)
	if err != nil {
		return false
	}
	for _, t := range r.Tags {
		if t == canonical {
			return true
		}
	}
	return false
}

// record is the mutable registry-side state of a registration.
type record struct {
	resource    any
	description string
	seq         uint64
	tags        map[string]struct{}
	order       []string
}

func (r *record) snapshot() Record {
	tags := make([]string, len(r.order))
	copy(tags, r.order)
	return Record{Resource: r.resource, Description: r.description, Tags: tags}
}

// slot is one arena cell. rec is nil while the slot is free.
type slot struct {
	gen uint32
	rec *record
}

// Registry maps handles to registrations.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	slots   []slot
	free    []uint32
	nextSeq uint64
	live    int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register creates a registration for resource with an empty tag set.
//
// Description:
//
//	Validates the description, stores it verbatim and returns a fresh
//	handle. Freed arena slots are reused with a new generation, so the
//	returned handle never equals one previously handed out.
//
// Inputs:
//
//	resource - Caller-owned value; held by reference only. May be nil.
//	description - Free text; must not be blank.
//
// Outputs:
//
//	Handle - The new registration's handle.
//	error - Wraps ErrInvalidInput for a blank or oversized description.
func (r *Registry) Register(resource any, description string) (Handle, error) {
	if err := ValidateDescription(description); err != nil {
		return Handle{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &record{
		resource:    resource,
		description: description,
		seq:         r.nextSeq,
		tags:        make(map[string]struct{}),
	}
	r.nextSeq++
	r.live++

	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx].rec = rec
		return Handle{slot: idx, gen: r.slots[idx].gen}, nil
	}
	r.slots = append(r.slots, slot{gen: 1, rec: rec})
	return Handle{slot: uint32(len(r.slots) - 1), gen: 1}, nil
}

// AddTag adds tag to the registration. Adding a present tag is a no-op.
//
// Outputs:
//
//	error - Wraps ErrNotFound for an unknown handle, ErrInvalidInput for a
//	malformed tag. The handle is checked first.
func (r *Registry) AddTag(h Handle, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.resolveLocked(h)
	if err != nil {
		return err
	}
	canonical, err := NormalizeTag(tag)
	if err != nil {
		return err
	}
	if _, ok := rec.tags[canonical]; ok {
		return nil
	}
	rec.tags[canonical] = struct{}{}
	rec.order = append(rec.order, canonical)
	return nil
}

// RemoveTag removes tag from the registration. Removing an absent tag,
// including one that cannot be normalized, is a no-op.
//
// Outputs:
//
//	error - Wraps ErrNotFound for an unknown handle.
func (r *Registry) RemoveTag(h Handle, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.resolveLocked(h)
	if err != nil {
		return err
	}
	canonical, err := NormalizeTag(tag)
	if err != nil {
		return nil
	}
	if _, ok := rec.tags[canonical]; !ok {
		return nil
	}
	delete(rec.tags, canonical)
	for i, t := range rec.order {
		if t == canonical {
			rec.order = append(rec.order[:i], rec.order[i+1:]...)
			break
		}
	}
	return nil
}

// Delete removes the registration entirely. Every copy of h becomes
// invalid.
//
// Outputs:
//
//	error - Wraps ErrNotFound for an unknown handle.
func (r *Registry) Delete(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.resolveLocked(h); err != nil {
		return err
	}
	s := &r.slots[h.slot]
	s.rec = nil
	r.live--
	if s.gen == math.MaxUint32 {
		// Retire the slot rather than wrap the generation back to a
		// value an old handle may still carry.
		return nil
	}
	s.gen++
	r.free = append(r.free, h.slot)
	return nil
}

// Lookup returns a snapshot of the registration.
//
// Outputs:
//
//	Record - Copy of the registration state.
//	error - Wraps ErrNotFound for an unknown handle.
func (r *Registry) Lookup(h Handle) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.resolveLocked(h)
	if err != nil {
		return Record{}, err
	}
	return rec.snapshot(), nil
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// Handles returns the live handles in registration order.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.liveLocked()
	out := make([]Handle, len(entries))
	for i, e := range entries {
		out[i] = e.handle
	}
	return out
}

// Search returns the handles whose tag set contains every query tag, in
// registration order. An empty query matches every registration.
//
// Outputs:
//
//	[]Handle - Matching handles; never nil.
//	error - Wraps ErrInvalidInput if a query tag is malformed.
func (r *Registry) Search(tags ...string) ([]Handle, error) {
	query := make([]string, 0, len(tags))
	for _, tag := range tags {
		canonical, err := NormalizeTag(tag)
		if err != nil {
			return nil, err
		}
		query = append(query, canonical)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Handle{}
	for _, e := range r.liveLocked() {
		if containsAll(e.rec.tags, query) {
			out = append(out, e.handle)
		}
	}
	return out, nil
}

// =============================================================================
// Internal helpers (callers hold r.mu)
// =============================================================================

func (r *Registry) resolveLocked(h Handle) (*record, error) {
	if h.IsZero() || int(h.slot) >= len(r.slots) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	s := r.slots[h.slot]
	if s.gen != h.gen || s.rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	return s.rec, nil
}

type liveEntry struct {
	handle Handle
	rec    *record
}

// liveLocked lists live registrations ordered by registration sequence.
func (r *Registry) liveLocked() []liveEntry {
	entries := make([]liveEntry, 0, r.live)
	for i, s := range r.slots {
		if s.rec == nil {
			continue
		}
		entries = append(entries, liveEntry{handle: Handle{slot: uint32(i), gen: s.gen}, rec: s.rec})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].rec.seq < entries[j].rec.seq
	})
	return entries
}

func containsAll(set map[string]struct{}, query []string) bool {
	for _, q := range query {
		if _, ok := set[q]; !ok {
			return false
		}
	}
	return true
}
