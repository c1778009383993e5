// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the tagsearch CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = ColorTealBright
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Step    lipgloss.Style
	Muted   lipgloss.Style
	Tag     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Step:    lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Tag:     lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Mode selects how a Printer decorates its output.
type Mode int

const (
	// ModePlain writes undecorated text suitable for pipes and scripts.
	ModePlain Mode = iota
	// ModeStyled writes colors, icons and boxes.
	ModeStyled
)

// Printer writes CLI output to a single destination.
//
// Description:
//
//	A Printer never writes to os.Stdout directly. Commands hand it the
//	writer cobra gives them so output is capturable in tests.
//
// Thread Safety:
//
//	Not safe for concurrent use. Commands print from one goroutine.
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter returns a Printer for w.
//
// Styling is enabled only when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, mode: DetectMode(w)}
}

// NewPrinterWithMode returns a Printer with an explicit mode.
func NewPrinterWithMode(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode}
}

// DetectMode reports ModeStyled for terminals unless NO_COLOR is set.
func DetectMode(w io.Writer) Mode {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return ModePlain
	}
	f, ok := w.(*os.File)
	if !ok {
		return ModePlain
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return ModeStyled
	}
	return ModePlain
}

// Mode returns the printer's output mode.
func (p *Printer) Mode() Mode { return p.mode }

// Title prints a heading.
func (p *Printer) Title(text string) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.w, "== %s ==\n", text)
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Step prints a progress line for one scenario step.
func (p *Printer) Step(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.mode == ModePlain {
		fmt.Fprintf(p.w, "-> %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render(string(IconArrow)), Styles.Step.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(format string, args ...any) {
	p.status(IconSuccess, "OK", Styles.Success, fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.status(IconWarning, "WARN", Styles.Warning, fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	p.status(IconError, "ERROR", Styles.Error, fmt.Sprintf(format, args...))
}

func (p *Printer) status(icon Icon, label string, style lipgloss.Style, text string) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.w, "%s: %s\n", label, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", style.Render(string(icon)), style.Render(text))
}

// Registry prints a rendered registry listing.
//
// In plain mode the listing is written byte for byte so it can be diffed.
// In styled mode the tag lines are highlighted and the listing is boxed.
func (p *Printer) Registry(rendered string) {
	if p.mode == ModePlain {
		fmt.Fprint(p.w, rendered)
		return
	}
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if rest, ok := strings.CutPrefix(trimmed, "tags: "); ok {
			indent := line[:len(line)-len(trimmed)]
			lines[i] = indent + Styles.Muted.Render("tags:") + " " + styleTags(rest)
		}
	}
	fmt.Fprintln(p.w, Styles.Box.Render(strings.Join(lines, "\n")))
}

func styleTags(list string) string {
	if list == "(none)" {
		return Styles.Muted.Render(list)
	}
	tags := strings.Split(list, ", ")
	for i, t := range tags {
		tags[i] = Styles.Tag.Render(t)
	}
	return strings.Join(tags, ", ")
}
