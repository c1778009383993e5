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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Shape Limits
// =============================================================================

const (
	// MaxTagWords is the maximum number of whitespace-delimited words in a tag.
	MaxTagWords = 2

	// MaxTagRunes is the maximum length of a tag in runes.
	MaxTagRunes = 64

	// MaxDescriptionBytes bounds a description. Descriptions are embedded
	// verbatim in generator prompts, so they are capped like chat messages.
	MaxDescriptionBytes = 32 * 1024
)

// =============================================================================
// Validator Instance
// =============================================================================

// shapeValidate checks descriptions and tags. Initialized in init() with
// the custom rules below.
var shapeValidate *validator.Validate

func init() {
	shapeValidate = validator.New()
	_ = shapeValidate.RegisterValidation("notblank", validateNotBlank)
	_ = shapeValidate.RegisterValidation("nocontrol", validateNoControl)
	_ = shapeValidate.RegisterValidation("maxwords", validateMaxWords)
	_ = shapeValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// rawTagInput is checked before whitespace is collapsed, so a newline or
// tab cannot be folded into a space.
type rawTagInput struct {
	Value string `validate:"required,nocontrol"`
}

// tagInput is checked on the canonical form. Case folding can expand a
// rune ("ﬃ" -> "ffi"), so limits apply after folding.
type tagInput struct {
	Value string `validate:"max=64,maxwords=2"`
}

type descriptionInput struct {
	Value string `validate:"notblank,maxbytes=32768"`
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateNoControl(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
}

func validateMaxWords(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(strings.Fields(fl.Field().String())) <= limit
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// =============================================================================
// Normalization
// =============================================================================

// NormalizeTag validates a tag and returns its canonical form.
//
// Description:
//
//	Applies the tag policy shared by manual tagging and generator
//	suggestions: trim, reject empty or control characters, collapse
//	interior whitespace, NFC-normalize and case-fold, then allow at most
//	MaxTagWords words and MaxTagRunes runes in the canonical form. A tag
//	that is too long is rejected, never truncated.
//
// Inputs:
//
//	tag - Raw tag text.
//
// Outputs:
//
//	string - Canonical tag, e.g. "  Grace   Notes " -> "grace notes".
//	error - Wraps ErrInvalidInput naming the failed rule.
//
// Thread Safety: Safe for concurrent use.
func NormalizeTag(tag string) (string, error) {
	trimmed := strings.TrimSpace(tag)
	if err := shapeValidate.Struct(rawTagInput{Value: trimmed}); err != nil {
		return "", fmt.Errorf("%w: tag %q: %s", ErrInvalidInput, tag, failedRule(err))
	}
	joined := strings.Join(strings.Fields(trimmed), " ")
	canonical := norm.NFC.String(cases.Fold().String(norm.NFC.String(joined)))
	if err := shapeValidate.Struct(tagInput{Value: canonical}); err != nil {
		return "", fmt.Errorf("%w: tag %q: %s", ErrInvalidInput, tag, failedRule(err))
	}
	return canonical, nil
}

// ValidateDescription checks that a description is non-blank and within
// MaxDescriptionBytes.
//
// Outputs:
//
//	error - Wraps ErrInvalidInput naming the failed rule.
func ValidateDescription(description string) error {
	if err := shapeValidate.Struct(descriptionInput{Value: description}); err != nil {
		return fmt.Errorf("%w: description: %s", ErrInvalidInput, failedRule(err))
	}
	return nil
}

// failedRule maps validator errors to a short human-readable reason.
func failedRule(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	switch fe := verrs[0]; fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "nocontrol":
		return "must not contain control characters or line breaks"
	case "maxwords":
		return fmt.Sprintf("must have at most %s words", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	default:
		return fe.Error()
	}
}
