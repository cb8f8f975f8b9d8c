// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.repoRoot()
			if err != nil {
				root = a.repoPath
			}
			cfg, err := a.loadConfig(root)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.ConfigError("failed to encode configuration", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# global:  %s\n", a.globalConfigPath())
			fmt.Fprintf(out, "# project: %s\n", config.GetProjectConfigPath(root))
			_, err = out.Write(data)
			return err
		},
	}

	var global, force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.globalConfigPath()
			if !global {
				root, err := a.repoRoot()
				if err != nil {
					return err
				}
				path = config.GetProjectConfigPath(root)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.ValidationError(fmt.Sprintf("%s already exists; use --force to overwrite", path), nil)
			}
			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return errors.ConfigError("failed to write config", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&global, "global", "g", false, "Write the global config instead of the project one")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}
