// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tagsearch/pkg/ux"
	"github.com/AleutianAI/tagsearch/services/tagsearch/config"
	"github.com/AleutianAI/tagsearch/services/tagsearch/generator"
	"github.com/AleutianAI/tagsearch/services/tagsearch/registry"
	"github.com/AleutianAI/tagsearch/services/tagsearch/suggest"
	"github.com/AleutianAI/tagsearch/services/tagsearch/telemetry"
)

// suggestOptions are the flag overrides for one suggest run.
type suggestOptions struct {
	file        string
	backend     string
	model       string
	maxTags     int
	concurrency int
	metricsOut  string
}

func newSuggestCmd(a *app) *cobra.Command {
	opts := &suggestOptions{}
	cmd := &cobra.Command{
		Use:   "suggest [description...]",
		Short: "Register descriptions and tag them with the configured LLM",
		Long: `Registers each description (positional arguments, or one per line of
--file, "-" for stdin), asks the configured backend for tags and prints the
resulting registry. A failed suggestion for one description does not affect
the others.`,
		Example: `  tagsearch suggest "The fermata on the last note is nice"
  tagsearch suggest --file comments.txt --backend ollama`,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd.Context(), a, cmd, opts, args)
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", `read descriptions from a file, one per line ("-" for stdin)`)
	f.StringVar(&opts.backend, "backend", "", "override generator.backend")
	f.StringVar(&opts.model, "model", "", "override generator.model")
	f.IntVar(&opts.maxTags, "max-tags", 0, "override suggest.max_tags")
	f.IntVar(&opts.concurrency, "concurrency", 0, "override suggest.concurrency")
	f.StringVar(&opts.metricsOut, "metrics-out", "", `write Prometheus metrics to this file after the run ("-" for stderr)`)
	return cmd
}

func runSuggest(ctx context.Context, a *app, cmd *cobra.Command, opts *suggestOptions, args []string) error {
	descriptions, err := collectDescriptions(cmd.InOrStdin(), opts.file, args)
	if err != nil {
		return err
	}
	if len(descriptions) == 0 {
		return errors.New("no descriptions given: pass them as arguments or with --file")
	}

	cfg := *a.cfg
	if err := opts.apply(&cfg); err != nil {
		return err
	}

	p := a.printer(cmd)
	reg := registry.New()
	handles := make([]registry.Handle, 0, len(descriptions))
	for i, d := range descriptions {
		h, err := reg.Register(nil, d)
		if err != nil {
			return fmt.Errorf("description %d: %w", i+1, err)
		}
		handles = append(handles, h)
	}

	gen, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	pipeline := suggest.NewPipeline(reg, a.logger, cfg.Suggest)
	results := pipeline.SuggestBatch(ctx, gen, handles)

	p.Title(fmt.Sprintf("Suggested tags (%s)", cfg.Generator.Backend))
	failed := reportResults(p, results)
	p.Registry(reg.Render())

	var errs []error
	if failed == len(results) {
		errs = append(errs, fmt.Errorf("all %d suggestions failed", failed))
	}
	if opts.metricsOut != "" {
		if err := writeMetrics(cmd.ErrOrStderr(), opts.metricsOut); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeMetrics dumps the default Prometheus registry to path, or to stderr
// when path is "-".
func writeMetrics(stderr io.Writer, path string) error {
	if path == "-" {
		return telemetry.WriteMetrics(stderr, prometheus.DefaultGatherer)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := telemetry.WriteMetrics(f, prometheus.DefaultGatherer); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// apply copies flag overrides into cfg and revalidates it.
func (o *suggestOptions) apply(cfg *config.Config) error {
	if o.backend != "" {
		cfg.Generator.Backend = o.backend
	}
	if o.model != "" {
		cfg.Generator.Model = o.model
	}
	if o.maxTags > 0 {
		cfg.Suggest.MaxTags = o.maxTags
	}
	if o.concurrency > 0 {
		cfg.Suggest.Concurrency = o.concurrency
	}
	return cfg.Validate()
}

// buildGenerator resolves the API key and constructs the backend.
//
// The enclave keeps the key sealed from resolution until construction.
// Backend clients hold it as a plain string afterwards (go-openai keeps it
// in its config, langchaingo in its client options), so it stays in process
// memory for the rest of the run.
func buildGenerator(ctx context.Context, cfg config.Config) (generator.Generator, error) {
	secret, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return generator.New(ctx, cfg.Generator, "")
	}

	var gen generator.Generator
	err = secret.Use(func(apiKey string) error {
		g, err := generator.New(ctx, cfg.Generator, apiKey)
		if err != nil {
			return err
		}
		gen = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// reportResults prints one status line per failed or notable result and
// returns the number of failures.
func reportResults(p *ux.Printer, results []suggest.BatchResult) int {
	failed := 0
	for i, r := range results {
		switch {
		case r.Err != nil:
			failed++
			p.Error("#%d: %v", i+1, r.Err)
		case r.Outcome.Abandoned:
			p.Warning("#%d: registration deleted before tags were merged", i+1)
		case !r.Outcome.Conforming:
			p.Warning("#%d: reply ignored (%s)", i+1, r.Outcome.Reason)
		case len(r.Outcome.Dropped) > 0:
			p.Warning("#%d: %d candidate(s) rejected", i+1, len(r.Outcome.Dropped))
		}
	}
	return failed
}

// collectDescriptions returns args, or the non-blank lines of file when set.
func collectDescriptions(stdin io.Reader, file string, args []string) ([]string, error) {
	if file == "" {
		return args, nil
	}
	if len(args) > 0 {
		return nil, errors.New("pass descriptions as arguments or with --file, not both")
	}

	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open descriptions: %w", err)
		}
		defer f.Close()
		r = f
	}

	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), registry.MaxDescriptionBytes+1)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read descriptions: %w", err)
	}
	return out, nil
}
