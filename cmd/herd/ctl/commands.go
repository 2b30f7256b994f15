// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/herd/internal/control"
	"github.com/matt-FFFFFF/herd/internal/display"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/urfave/cli/v3"
)

const (
	pathArg      = "path"
	signalArg    = "signal"
	argFlag      = "arg"
	envFlag      = "env"
	silentFlag   = "silent"
	detachedFlag = "detached"
	logFileFlag  = "log-file"
	dirFlag      = "dir"
	forceFlag    = "force"
	allFlag      = "all"
	noWaitFlag   = "no-wait"
	jsonFlag     = "json"
	tailFlag     = "tail"
	headFlag     = "head"
	logDirFlag   = "log-dir"
	defaultLogs  = "logs"
)

func startFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    argFlag,
			Aliases: []string{"a"},
			Usage:   "Argument passed to the executable, repeat for more",
		},
		&cli.StringSliceFlag{
			Name:    envFlag,
			Aliases: []string{"e"},
			Usage:   "Environment variable as KEY=VALUE, repeat for more",
		},
	}
}

func startOptions(cmd *cli.Command) (supervisor.StartOptions, error) {
	env, err := parseEnv(cmd.StringSlice(envFlag))
	if err != nil {
		return supervisor.StartOptions{}, cli.Exit(err.Error(), 2)
	}

	return supervisor.StartOptions{
		Args:     cmd.StringSlice(argFlag),
		Env:      env,
		Silent:   cmd.Bool(silentFlag),
		Detached: cmd.Bool(detachedFlag),
		LogFile:  cmd.String(logFileFlag),
		Dir:      cmd.String(dirFlag),
	}, nil
}

// restartOptions only overrides the flags given on the command line.
func restartOptions(cmd *cli.Command) (supervisor.RestartOptions, error) {
	env, err := parseEnv(cmd.StringSlice(envFlag))
	if err != nil {
		return supervisor.RestartOptions{}, cli.Exit(err.Error(), 2)
	}

	opts := supervisor.RestartOptions{
		Args: cmd.StringSlice(argFlag),
		Env:  env,
	}

	if cmd.IsSet(silentFlag) {
		v := cmd.Bool(silentFlag)
		opts.Silent = &v
	}

	if cmd.IsSet(detachedFlag) {
		v := cmd.Bool(detachedFlag)
		opts.Detached = &v
	}

	return opts, nil
}

// StartCmd starts a new instance.
var StartCmd = &cli.Command{
	Name:      "start",
	Usage:     "Start a new instance",
	ArgsUsage: "<id> <path>",
	Arguments: []cli.Argument{
		idArgument(),
		&cli.StringArg{Name: pathArg},
	},
	Flags: append(startFlags(),
		addr(),
		&cli.BoolFlag{
			Name:  silentFlag,
			Usage: "Do not echo output to the supervisor console",
		},
		&cli.BoolFlag{
			Name:  detachedFlag,
			Usage: "Run the instance in its own process group",
		},
		&cli.StringFlag{
			Name:      logFileFlag,
			Usage:     "Log file, defaults to <log-dir>/<id>.log",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      dirFlag,
			Usage:     "Working directory",
			TakesFile: true,
		},
	),
	Action: func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		path := cmd.StringArg(pathArg)
		if path == "" {
			return cli.Exit("start: a path is required", 2)
		}

		opts, err := startOptions(cmd)
		if err != nil {
			return err
		}

		inst, err := client(cmd).Start(ctx, id, path, opts)
		if err != nil {
			return failed(err)
		}

		_, err = fmt.Fprintf(cmd.Root().Writer, "started %s (pid %d)\n", inst.ID, inst.Pid)

		return err
	},
}

// StopCmd stops one instance, or all of them.
var StopCmd = &cli.Command{
	Name:      "stop",
	Usage:     "Stop an instance",
	ArgsUsage: "<id> | --all",
	Arguments: []cli.Argument{idArgument()},
	Flags: []cli.Flag{
		addr(),
		&cli.BoolFlag{
			Name:    forceFlag,
			Aliases: []string{"k"},
			Usage:   "Kill instead of asking the process to terminate",
		},
		&cli.BoolFlag{
			Name:  allFlag,
			Usage: "Stop every instance",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		c := client(cmd)
		force := cmd.Bool(forceFlag)

		if cmd.Bool(allFlag) {
			res, err := c.StopAll(ctx, force)
			if err != nil {
				return failed(err)
			}

			for _, e := range res.Errors {
				_, _ = fmt.Fprintln(cmd.Root().ErrWriter, e)
			}

			_, err = fmt.Fprintf(cmd.Root().Writer, "stopping %d instance(s)\n", res.Count)

			return err
		}

		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		ok, err := c.Stop(ctx, id, force)
		if err != nil {
			return failed(err)
		}

		if !ok {
			return notFound(id)
		}

		_, err = fmt.Fprintf(cmd.Root().Writer, "stopping %s\n", id)

		return err
	},
}

// RestartCmd restarts an instance with merged options.
var RestartCmd = &cli.Command{
	Name:      "restart",
	Usage:     "Restart an instance",
	ArgsUsage: "<id>",
	Description: `Stop the instance and start it again with the same executable.
Arguments given here replace the original ones and environment entries are merged.
--silent and --detached replace the original flags only when given.
By default the new process starts once the old one has exited. With --no-wait the supervisor
waits for its grace delay instead.`,
	Arguments: []cli.Argument{idArgument()},
	Flags: append(startFlags(),
		addr(),
		&cli.BoolFlag{
			Name:  noWaitFlag,
			Usage: "Use the grace delay instead of waiting for the old process to exit",
		},
		&cli.BoolFlag{
			Name:  silentFlag,
			Usage: "Set or clear (--silent=false) console echo, unchanged when omitted",
		},
		&cli.BoolFlag{
			Name:  detachedFlag,
			Usage: "Set or clear (--detached=false) the separate process group, unchanged when omitted",
		},
	),
	Action: func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		opts, err := restartOptions(cmd)
		if err != nil {
			return err
		}

		inst, err := client(cmd).Restart(ctx, id, opts, !cmd.Bool(noWaitFlag))

		switch {
		case errors.Is(err, supervisor.ErrInstanceNotFound):
			return notFound(id)
		case err != nil:
			return failed(err)
		}

		_, err = fmt.Fprintf(cmd.Root().Writer, "restarted %s (pid %d)\n", inst.ID, inst.Pid)

		return err
	},
}

// SignalCmd sends a named signal to an instance.
var SignalCmd = &cli.Command{
	Name:      "signal",
	Usage:     "Send a signal to an instance",
	ArgsUsage: "<id> <signal>",
	Arguments: []cli.Argument{
		idArgument(),
		&cli.StringArg{Name: signalArg},
	},
	Flags: []cli.Flag{addr()},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		sig := cmd.StringArg(signalArg)
		if sig == "" {
			return cli.Exit("signal: a signal name is required, e.g. SIGHUP", 2)
		}

		ok, err := client(cmd).Signal(ctx, id, sig)
		if err != nil {
			return failed(err)
		}

		if !ok {
			return cli.Exit(fmt.Sprintf("could not deliver %s to %s", sig, id), 1)
		}

		return nil
	},
}

// PsCmd lists running instances.
var PsCmd = &cli.Command{
	Name:    "ps",
	Aliases: []string{"list"},
	Usage:   "List running instances",
	Flags: []cli.Flag{
		addr(),
		&cli.BoolFlag{
			Name:  jsonFlag,
			Usage: "Print JSON instead of a table",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		list, err := client(cmd).List(ctx)
		if err != nil {
			return failed(err)
		}

		if cmd.Bool(jsonFlag) {
			if list == nil {
				list = []supervisor.Summary{}
			}

			return printJSON(cmd.Root().Writer, list)
		}

		_, err = fmt.Fprintln(cmd.Root().Writer, display.Table(list))

		return err
	},
}

// GetCmd prints the details of one instance.
var GetCmd = &cli.Command{
	Name:      "get",
	Usage:     "Show the details of an instance",
	ArgsUsage: "<id>",
	Arguments: []cli.Argument{idArgument()},
	Flags:     []cli.Flag{addr()},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		detail, ok, err := client(cmd).Get(ctx, id)
		if err != nil {
			return failed(err)
		}

		if !ok {
			return notFound(id)
		}

		return printJSON(cmd.Root().Writer, detail)
	},
}

// LogsCmd prints an instance's log, falling back to the file when no supervisor is listening.
var LogsCmd = &cli.Command{
	Name:      "logs",
	Usage:     "Print an instance's log",
	ArgsUsage: "<id>",
	Description: `Print the log of an instance. --tail keeps the last N lines and --head then
keeps the first N of those. When no supervisor is listening the log is read
from <log-dir>/<id>.log directly.`,
	Arguments: []cli.Argument{idArgument()},
	Flags: []cli.Flag{
		addr(),
		&cli.IntFlag{
			Name:    tailFlag,
			Aliases: []string{"n"},
			Usage:   "Keep only the last N lines",
		},
		&cli.IntFlag{
			Name:  headFlag,
			Usage: "Keep only the first N lines, applied after --tail",
		},
		&cli.StringFlag{
			Name:      logDirFlag,
			Usage:     "Log directory used when no supervisor is listening",
			Value:     defaultLogs,
			TakesFile: true,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireID(cmd)
		if err != nil {
			return err
		}

		var opts supervisor.LogOptions

		if cmd.IsSet(tailFlag) {
			n := cmd.Int(tailFlag)
			opts.Tail = &n
		}

		if cmd.IsSet(headFlag) {
			n := cmd.Int(headFlag)
			opts.Head = &n
		}

		text, ok, err := client(cmd).Logs(ctx, id, opts)
		if errors.Is(err, control.ErrUnreachable) {
			text, ok, err = supervisor.ReadLogs(cmd.String(logDirFlag), id, opts)
		}

		if err != nil {
			return failed(err)
		}

		if !ok {
			return cli.Exit(fmt.Sprintf("no logs for %q", id), 1)
		}

		if text == "" {
			return nil
		}

		_, err = fmt.Fprintln(cmd.Root().Writer, text)

		return err
	},
}
