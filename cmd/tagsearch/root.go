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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tagsearch/pkg/logging"
	"github.com/AleutianAI/tagsearch/pkg/ux"
	"github.com/AleutianAI/tagsearch/services/tagsearch/config"
	"github.com/AleutianAI/tagsearch/services/tagsearch/telemetry"
)

// telemetryShutdownTimeout bounds the final exporter flush.
const telemetryShutdownTimeout = 5 * time.Second

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg      *config.Config
	logger   *logging.Logger
	shutdown func(context.Context) error
}

// newRootCmd builds the command tree. Each call returns an independent tree
// so tests can run commands side by side.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "tagsearch",
		Short:         "Tag free-text comments by hand or with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.tagsearch/tagsearch.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	flags.BoolVar(&a.logJSON, "log-json", false, "write logs to stderr as JSON")

	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newDemoCmd(a))
	rootCmd.AddCommand(newSuggestCmd(a))
	return rootCmd
}

// setup loads the config and starts logging and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "tagsearch",
		JSON:    cfg.Logging.JSON || a.logJSON,
	})
	slog.SetDefault(a.logger.Slog())

	telCfg := cfg.Telemetry
	telCfg.Output = cmd.ErrOrStderr()
	shutdown, err := telemetry.Init(cmd.Context(), telCfg)
	if err != nil {
		return errors.Join(fmt.Errorf("init telemetry: %w", err), a.teardown())
	}
	a.shutdown = shutdown

	a.logger.Debug("Configuration loaded",
		"backend", cfg.Generator.Backend,
		"max_tags", cfg.Suggest.MaxTags,
		"concurrency", cfg.Suggest.Concurrency)
	return nil
}

// runE wraps a command body so teardown runs whether or not the body
// fails. cobra skips PersistentPostRunE after an error.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown())
		}()
		return fn(cmd, args)
	}
}

// teardown flushes telemetry and closes the logger. Safe to call more than
// once.
func (a *app) teardown() error {
	var errs []error
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
		a.shutdown = nil
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logger = nil
	}
	return errors.Join(errs...)
}

// printer returns a Printer bound to the command's stdout.
func (a *app) printer(cmd *cobra.Command) *ux.Printer {
	return ux.NewPrinter(cmd.OutOrStdout())
}
