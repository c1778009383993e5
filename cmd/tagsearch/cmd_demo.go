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
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tagsearch/services/tagsearch/registry"
)

// demoComment is the opaque resource attached to each demo registration.
type demoComment struct {
	id int
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the manual tagging walkthrough",
		Long: `Registers two comments, tags them by hand, removes a tag, deletes a
registration and searches by tag, printing the registry after each step.
No language model is called.`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return runDemo(a, cmd)
		}),
	}
}

func runDemo(a *app, cmd *cobra.Command) error {
	p := a.printer(cmd)
	reg := registry.New()

	p.Title("Manual tagging")
	first, err := reg.Register(&demoComment{id: 1}, "First comment about music theory")
	if err != nil {
		return err
	}
	second, err := reg.Register(&demoComment{id: 2}, "Second comment about music composition")
	if err != nil {
		return err
	}
	a.logger.Debug("Registered demo comments", "first", first.String(), "second", second.String())

	for _, step := range []struct {
		h   registry.Handle
		tag string
	}{
		{first, "music"},
		{first, "theory"},
		{second, "music"},
		{second, "composition"},
	} {
		if err := reg.AddTag(step.h, step.tag); err != nil {
			return err
		}
	}
	p.Step("added tags")
	p.Registry(reg.Render())

	if err := reg.RemoveTag(first, "theory"); err != nil {
		return err
	}
	rec, err := reg.Lookup(first)
	if err != nil {
		return err
	}
	p.Step("removed %q from the first comment, tags now: %s", "theory", strings.Join(rec.Tags, ", "))
	p.Registry(reg.Render())

	if err := reg.Delete(second); err != nil {
		return err
	}
	p.Step("deleted the second comment")
	p.Registry(reg.Render())

	hits, err := reg.Search("music")
	if err != nil {
		return err
	}
	p.Success("%d registration(s) tagged %q", len(hits), "music")
	return nil
}
