// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the herd command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/herd"
	"github.com/matt-FFFFFF/herd/cmd/herd/ctl"
	"github.com/matt-FFFFFF/herd/cmd/herd/run"
	"github.com/matt-FFFFFF/herd/cmd/herd/schema"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		ctl.StartCmd,
		ctl.StopCmd,
		ctl.RestartCmd,
		ctl.SignalCmd,
		ctl.PsCmd,
		ctl.GetCmd,
		ctl.LogsCmd,
		schema.SchemaCmd,
		versionCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "herd",
	Description: `herd is a process supervisor. It launches, tracks, restarts, signals and
retires a set of independently running child processes. Each instance has a unique
ID and its own log file. "herd run" hosts the supervisor in the foreground; the
other commands talk to it over a local control API.`,
	Usage:     "herd run -f herd.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print the version",
	Action: func(_ context.Context, cmd *cli.Command) error {
		_, err := fmt.Fprintln(cmd.Root().Writer, cmd.Root().Version)
		return err
	},
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", herd.Version, herd.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework
	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1) //nolint:gocritic
	}
}
