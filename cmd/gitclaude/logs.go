// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/output"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		count int
		event string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show saved responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.repoRoot()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(root)
			if err != nil {
				return err
			}

			entries, err := output.NewFileWriter(root, cfg.Output).List(event, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No responses found.")
				return nil
			}

			fmt.Fprintf(out, "Last %d responses\n\n", len(entries))
			for _, e := range entries {
				rec, err := e.Read()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s\n", e)
				if s := output.Summary(rec.Response, 72); s != "" {
					fmt.Fprintf(out, "    %s\n", s)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of entries to show")
	cmd.Flags().StringVarP(&event, "event", "e", "", "Only show this event")
	return cmd
}
