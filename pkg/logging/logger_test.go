// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(-3), slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := tt.level.toSlogLevel(); got != tt.want {
			t.Errorf("%v.toSlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"", LevelInfo, false},
		{"info", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_QuietWithoutDestinations(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	if logger.slog == nil {
		t.Fatal("logger.slog is nil in quiet mode")
	}
	logger.Info("discarded")
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "unit", Quiet: true})

	logger.Info("written to file", "tag", "jazz")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "unit_") {
		t.Errorf("log file name = %q, want unit_ prefix", entries[0].Name())
	}
	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("log file missing JSON record: %s", data)
	}
}

func TestNew_DefaultFileServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})
	logger.Info("x")
	_ = logger.Close()

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "tagsearch_") {
		t.Errorf("expected tagsearch_ log file, got %v", entries)
	}
}

func TestLogger_ExporterReceivesEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Service: "svc", Exporter: exporter})

	logger.Info("first", "count", 3)
	logger.Warn("second")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := exporter.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	byMsg := map[string]LogEntry{}
	for _, e := range entries {
		byMsg[e.Message] = e
	}
	if byMsg["first"].Attrs["count"] != 3 {
		t.Errorf("Attrs[count] = %v, want 3", byMsg["first"].Attrs["count"])
	}
	if byMsg["second"].Level != LevelWarn {
		t.Errorf("Level = %v, want WARN", byMsg["second"].Level)
	}
	if byMsg["first"].Service != "svc" {
		t.Errorf("Service = %q, want svc", byMsg["first"].Service)
	}
}

func TestLogger_ExporterRespectsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Level: LevelWarn, Exporter: exporter})

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Error("kept")
	_ = logger.Close()

	if got := exporter.Messages(); len(got) != 1 || got[0] != "kept" {
		t.Errorf("Messages() = %v, want [kept]", got)
	}
}

func TestLogger_WithSharesExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	root := New(Config{Quiet: true, Exporter: exporter})
	child := root.With("batch_id", "b-1")

	child.Info("from child")
	_ = root.Close()

	if got := exporter.Messages(); len(got) != 1 || got[0] != "from child" {
		t.Errorf("Messages() = %v", got)
	}
}

func TestLogger_WithAttrsReachExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	root := New(Config{Quiet: true, Exporter: exporter})
	child := root.With("batch_id", "b-1").With("handle", "h1.1")

	child.Info("merged", "tags", 3, "handle", "h2.1")
	root.Info("root only")
	_ = root.Close()

	entries := exporter.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() = %d, want 2", len(entries))
	}
	byMsg := map[string]LogEntry{}
	for _, e := range entries {
		byMsg[e.Message] = e
	}
	attrs := byMsg["merged"].Attrs
	if attrs["batch_id"] != "b-1" || attrs["tags"] != 3 {
		t.Errorf("child attrs = %v, want batch_id and tags", attrs)
	}
	if attrs["handle"] != "h2.1" {
		t.Errorf("handle = %v, want per-call value to win", attrs["handle"])
	}
	if _, ok := byMsg["root only"].Attrs["batch_id"]; ok {
		t.Errorf("root entry inherited child attrs: %v", byMsg["root only"].Attrs)
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With("worker", i).Info("tick")
		}(i)
	}
	wg.Wait()
	_ = logger.Close()

	if got := len(exporter.Entries()); got != 20 {
		t.Errorf("got %d entries, want 20", got)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"a", 1, slog.String("b", "two"), "dangling"})
	if got["a"] != 1 {
		t.Errorf("a = %v", got["a"])
	}
	if got["b"] != "two" {
		t.Errorf("b = %v", got["b"])
	}
	if _, ok := got["dangling"]; ok {
		t.Error("dangling key without value should be ignored")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/logs"); got != home+"/logs" {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %q", got)
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)
	err := exporter.Export(context.Background(), LogEntry{Level: LevelInfo, Message: "hello"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "INFO: hello") {
		t.Errorf("output = %q", buf.String())
	}
}
