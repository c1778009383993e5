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
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cached memoizes successful responses by prompt and collapses concurrent
// identical prompts into one upstream call. Errors are never cached.
//
// Thread Safety: Safe for concurrent use.
type Cached struct {
	next   Generator
	store  *cache.Cache
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewCached wraps next with a response cache whose entries expire after ttl.
func NewCached(next Generator, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: cache.New(ttl, 2*ttl),
	}
}

// Generate implements Generator.
func (c *Cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		return v.(string), nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		out, err := c.next.Generate(ctx, prompt)
		if err != nil {
			return "", err
		}
		c.store.SetDefault(key, out)
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Stats returns a snapshot of hit and miss counters.
func (c *Cached) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.store.ItemCount(),
	}
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
