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
	"fmt"
	"strings"
	"unicode"

	"github.com/AleutianAI/tagsearch/services/tagsearch/registry"
)

// =============================================================================
// Reply Grammar
// =============================================================================

const (
	// MaxResponseBytes bounds a conforming reply after trimming.
	MaxResponseBytes = 512

	// noneReply is the explicit "no tags" answer, matched case-insensitively.
	noneReply = "NONE"
)

// ParseResult is the outcome of parsing one generator reply.
type ParseResult struct {
	// Candidates are the raw comma-separated items, trimmed. Empty when
	// the reply is NONE or non-conforming.
	Candidates []string

	// Conforming is false when the reply did not match the grammar.
	Conforming bool

	// Reason explains a non-conforming reply.
	Reason string
}

// ParseResponse parses a generator reply with a strict grammar.
//
// Description:
//
//	Accepted shapes, after trimming surrounding whitespace:
//
//	  NONE                      (any case) zero candidates
//	  item{, item}              1..maxTags non-empty items on one line
//
//	The reply must be at most MaxResponseBytes and contain only letters,
//	marks, digits, spaces, commas, hyphens, apostrophes and the accidentals
//	♭ and ♯. Anything else (prose with punctuation, JSON, markup, numbered
//	lists, several lines) is non-conforming. Non-conforming replies are
//	rejected whole and never repaired.
//
// Inputs:
//
//	raw - Untrusted generator output.
//	maxTags - Maximum number of items.
//
// Outputs:
//
//	ParseResult - Candidates or the reason for rejection.
//
// Thread Safety: Safe for concurrent use.
func ParseResponse(raw string, maxTags int) ParseResult {
	reply := strings.TrimSpace(raw)
	switch {
	case reply == "":
		return nonConforming("empty reply")
	case len(reply) > MaxResponseBytes:
		return nonConforming(fmt.Sprintf("reply exceeds %d bytes", MaxResponseBytes))
	case strings.EqualFold(reply, noneReply):
		return ParseResult{Conforming: true}
	case strings.ContainsAny(reply, "\r\n"):
		return nonConforming("reply spans several lines")
	}
	if i := strings.IndexFunc(reply, func(r rune) bool { return !allowedReplyRune(r) }); i >= 0 {
		return nonConforming(fmt.Sprintf("disallowed character %q", []rune(reply[i:])[0]))
	}

	items := strings.Split(reply, ",")
	if len(items) > maxTags {
		return nonConforming(fmt.Sprintf("%d items, at most %d allowed", len(items), maxTags))
	}
	candidates := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nonConforming("empty item")
		}
		candidates = append(candidates, item)
	}
	return ParseResult{Candidates: candidates, Conforming: true}
}

func nonConforming(reason string) ParseResult {
	return ParseResult{Reason: reason}
}

func allowedReplyRune(r rune) bool {
	switch r {
	case ' ', ',', '-', '\'', '’', '♭', '♯':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// =============================================================================
// Candidate Screening
// =============================================================================

// Control markers are screened on the whole candidate, not on any word it
// contains, so topical tags such as "operating system" or "front end" pass.
// The reply grammar remains the primary defense; this screen only removes
// candidates that name the conversation instead of the comment.
var (
	// loneMarkers are dropped when they are the entire candidate.
	loneMarkers = map[string]struct{}{
		"system": {}, "assistant": {}, "developer": {},
		"none": {}, "null": {}, "undefined": {}, "placeholder": {}, "payload": {},
		"tag": {}, "tags": {}, "prompt": {}, "instruction": {}, "instructions": {},
	}

	// overrideVerbs drop a candidate when they lead it ("ignore rules").
	overrideVerbs = map[string]struct{}{
		"ignore": {}, "disregard": {}, "forget": {},
	}

	// roleWords followed by a controlTarget form a control phrase
	// ("system prompt", "developer-mode").
	roleWords = map[string]struct{}{
		"system": {}, "assistant": {}, "developer": {}, "admin": {}, "internal": {},
	}
	controlTargets = map[string]struct{}{
		"prompt": {}, "prompts": {}, "message": {}, "messages": {},
		"instruction": {}, "instructions": {}, "override": {}, "mode": {},
		"access": {}, "role": {},
	}

	// fenceWords followed by a role word or "comment" echo block markers
	// ("begin internal", "end comment").
	fenceWords = map[string]struct{}{"begin": {}, "end": {}}
)

// ScreenCandidate returns the canonical form of a candidate tag, or a
// non-empty reason it must be dropped.
//
// A candidate is dropped when it fails registry.NormalizeTag, has no letter,
// or is a control marker: a lone role or meta word, a phrase led by an
// override verb, a role word paired with a control target, an echoed
// fence marker, or anything mentioning a jailbreak.
func ScreenCandidate(candidate string) (canonical string, reason string) {
	canonical, err := registry.NormalizeTag(candidate)
	if err != nil {
		return "", err.Error()
	}
	if strings.IndexFunc(canonical, unicode.IsLetter) < 0 {
		return "", "no letters"
	}
	if marker := controlMarker(canonical); marker != "" {
		return "", fmt.Sprintf("control marker %q", marker)
	}
	return canonical, ""
}

// controlMarker returns the offending text when tag is a control marker.
func controlMarker(tag string) string {
	parts := strings.FieldsFunc(tag, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\'' || r == '’'
	})
	for _, p := range parts {
		if p == "jailbreak" {
			return p
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if _, ok := overrideVerbs[parts[0]]; ok {
		return tag
	}
	if len(parts) == 1 {
		if _, ok := loneMarkers[parts[0]]; ok {
			return tag
		}
		return ""
	}
	first, second := parts[0], parts[1]
	if _, ok := roleWords[first]; ok {
		if _, ok := controlTargets[second]; ok {
			return tag
		}
	}
	if _, ok := fenceWords[first]; ok {
		if _, ok := roleWords[second]; ok || second == "comment" {
			return tag
		}
	}
	return ""
}
