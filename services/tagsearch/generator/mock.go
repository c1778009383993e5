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
	"sync"
	"time"
)

// MockGenerator is a scripted Generator for tests and the offline demo.
//
// Responses are served from the queue first, then from the response
// function, then the default response. A configured error wins over all of
// them.
//
// Thread Safety: Safe for concurrent use. Delays do not hold the lock.
type MockGenerator struct {
	mu sync.Mutex

	// responses are queued responses to return in order.
	responses []string

	// defaultResponse is returned when nothing else applies.
	defaultResponse string

	// calls records every prompt received.
	calls []Call

	// responseFunc allows dynamic response generation.
	responseFunc func(ctx context.Context, prompt string) (string, error)

	// delay adds artificial latency; honours ctx.
	delay time.Duration

	// errorToReturn causes Generate to fail.
	errorToReturn error
}

// Call records one Generate invocation.
type Call struct {
	Prompt    string
	Timestamp time.Time
}

// NewMockGenerator creates a mock whose default response is "NONE".
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{defaultResponse: "NONE"}
}

// WithDelay adds artificial latency.
func (m *MockGenerator) WithDelay(d time.Duration) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithError configures the mock to fail every call.
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorToReturn = err
	return m
}

// WithResponseFunc sets a dynamic response function. It runs outside the
// mock's lock and may block.
func (m *MockGenerator) WithResponseFunc(f func(ctx context.Context, prompt string) (string, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = f
	return m
}

// WithDefaultResponse sets the response used once the queue is empty.
func (m *MockGenerator) WithDefaultResponse(resp string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = resp
	return m
}

// QueueResponse adds responses to the queue.
func (m *MockGenerator) QueueResponse(responses ...string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Timestamp: time.Now()})
	delay, errToReturn, fn := m.delay, m.errorToReturn, m.responseFunc
	var queued *string
	if errToReturn == nil && len(m.responses) > 0 {
		queued = &m.responses[0]
		m.responses = m.responses[1:]
	}
	fallback := m.defaultResponse
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case errToReturn != nil:
		return "", errToReturn
	case queued != nil:
		return *queued, nil
	case fn != nil:
		return fn(ctx, prompt)
	default:
		return fallback, nil
	}
}

// Calls returns all recorded calls.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of calls made.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt returns the most recent prompt, or "" if none.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Prompt
}

// Verify ensures all queued responses were consumed.
func (m *MockGenerator) Verify() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) > 0 {
		return fmt.Errorf("mock: %d queued responses not consumed", len(m.responses))
	}
	return nil
}
