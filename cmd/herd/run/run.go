// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements `herd run`, which hosts a supervisor in the foreground.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/herd/internal/color"
	"github.com/matt-FFFFFF/herd/internal/config"
	"github.com/matt-FFFFFF/herd/internal/console"
	"github.com/matt-FFFFFF/herd/internal/control"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/display"
	"github.com/matt-FFFFFF/herd/internal/metrics"
	"github.com/matt-FFFFFF/herd/internal/progress"
	"github.com/matt-FFFFFF/herd/internal/signalbroker"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/matt-FFFFFF/herd/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag          = "file"
	logDirFlag        = "log-dir"
	tuiFlag           = "tui"
	interactiveFlag   = "interactive"
	listenFlag        = "listen"
	graceFlag         = "grace"
	exitWhenEmptyFlag = "exit-when-empty"
	noColorFlag       = "no-color"
	lockFileName      = ".herd.lock"
	reporterBuffer    = 1024
	closeTimeout      = 10 * time.Second
	cliExitStr        = ""
)

var (
	// ErrAlreadyRunning is returned when another supervisor holds the log directory lock.
	ErrAlreadyRunning = errors.New("another herd supervisor is using this log directory")
	// ErrStartInstances is returned when one or more configured instances failed to start.
	ErrStartInstances = errors.New("failed to start instances")
)

// RunCmd hosts a supervisor until it is told to stop.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Run the supervisor in the foreground",
	Description: `Start the instances defined in a YAML or HCL file and supervise them.
Output of every instance is appended to its log file and echoed to the console.

The control API used by the other herd commands is served on --listen.
Prometheus metrics are available on the same address under /metrics.

The first SIGINT or SIGTERM stops every instance gracefully; a second one kills them.

Config file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.
`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "Supervisor file (.yaml, .yml or .hcl). Supports go-getter URLs.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      logDirFlag,
			Usage:     "Directory for instance logs, overrides log_dir from the file",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:    tuiFlag,
			Aliases: []string{"t"},
			Usage:   "Show a full screen dashboard instead of echoing output",
		},
		&cli.BoolFlag{
			Name:    interactiveFlag,
			Aliases: []string{"i"},
			Usage:   "Open an interactive prompt to control instances",
		},
		&cli.StringFlag{
			Name:  listenFlag,
			Usage: "Address for the control API, empty to disable",
			Value: control.DefaultAddr,
		},
		&cli.DurationFlag{
			Name:  graceFlag,
			Usage: "Delay between stop and start when restarting",
			Value: supervisor.DefaultGraceDelay,
		},
		&cli.BoolFlag{
			Name:  exitWhenEmptyFlag,
			Usage: "Exit once every instance has exited",
		},
		&cli.BoolFlag{
			Name:  noColorFlag,
			Usage: "Disable coloured output",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	if cmd.Bool(noColorFlag) {
		color.SetEnabled(false)
	}

	file := &config.File{}

	if src := cmd.String(fileFlag); src != "" {
		var err error

		file, err = config.Load(ctx, src)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	cfg := file.SupervisorConfig()
	if cmd.IsSet(logDirFlag) {
		cfg.LogDir = cmd.String(logDirFlag)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tuiLogs *bytes.Buffer

	if cmd.Bool(tuiFlag) {
		tuiLogs = new(bytes.Buffer)
		ctx = ctxlog.NewForTUI(ctx, tuiLogs)

		defer tuiLogs.WriteTo(cmd.Root().ErrWriter) //nolint:errcheck
	}

	// Queued events are still flushed to the display after ctx is cancelled.
	reporter := progress.NewChannelReporter(context.WithoutCancel(ctx), reporterBuffer)
	defer reporter.Close()

	prom := metrics.NewPrometheus("herd")

	m, err := supervisor.New(ctx, cfg,
		supervisor.WithDisplay(reporter),
		supervisor.WithMetrics(prom),
		supervisor.WithGraceDelay(cmd.Duration(graceFlag)),
	)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	lock := flock.New(filepath.Join(m.LogDir(), lockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return cli.Exit(fmt.Sprintf("acquiring lock: %s", err), 1)
	}

	if !locked {
		return cli.Exit(fmt.Sprintf("%s: %s", ErrAlreadyRunning, m.LogDir()), 1)
	}

	defer func() { _ = lock.Unlock() }()

	var runner *tui.Runner

	switch {
	case cmd.Bool(tuiFlag):
		runner = tui.NewRunner(ctx)
		reporter.Listen(runner.Listener())
	default:
		reporter.Listen(display.NewConsole(cmd.Root().Writer))
	}

	defer shutdown(ctx, m)

	serveErr := make(chan error, 1)

	if addr := cmd.String(listenFlag); addr != "" {
		srv := control.NewServer(m, prom.Handler())

		go func() {
			serveErr <- srv.ListenAndServe(ctx, addr, nil)
		}()
	}

	startErr := startAll(ctx, m, file.Instances)
	if startErr != nil {
		logger.Error("some instances failed to start", "error", startErr)
	}

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, func() {
		stopAndWait(ctx, m)
		cancel()
	}, cancel)

	if cmd.Bool(exitWhenEmptyFlag) {
		go func() {
			waitEmpty(ctx, m)
			cancel()
		}()
	}

	switch {
	case runner != nil:
		if err := runner.Run(); err != nil {
			logger.Error("TUI execution error", "error", err)
		}

		cancel()
	case cmd.Bool(interactiveFlag):
		if err := console.Run(ctx, m, cmd.Root().Writer); err != nil {
			logger.Error("console error", "error", err)
		}

		cancel()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return cli.Exit(fmt.Sprintf("control API: %s", err), 1)
		}
	}

	if startErr != nil {
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// startAll starts every configured instance, carrying on past failures.
func startAll(ctx context.Context, m *supervisor.Manager, instances []config.Instance) error {
	var result error

	for _, inst := range instances {
		if _, err := m.Start(ctx, inst.ID, inst.Path, inst.StartOptions()); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", inst.ID, err))
		}
	}

	if result != nil {
		return errors.Join(ErrStartInstances, result)
	}

	return nil
}

// stopAndWait sends SIGTERM to every instance and waits for all of them to exit.
func stopAndWait(ctx context.Context, m *supervisor.Manager) {
	if _, err := m.StopAll(ctx, supervisor.StopOptions{}); err != nil {
		ctxlog.Warn(ctx, "some instances could not be stopped", "error", err)
	}

	waitEmpty(ctx, m)
}

// waitEmpty blocks until no instance is registered or ctx is done.
func waitEmpty(ctx context.Context, m *supervisor.Manager) {
	for ctx.Err() == nil {
		list := m.List()
		if len(list) == 0 {
			return
		}

		for _, s := range list {
			_ = m.Wait(ctx, s.ID)
		}
	}
}

// shutdown kills whatever is left and waits for the logs to be closed.
func shutdown(ctx context.Context, m *supervisor.Manager) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	if err := m.Close(closeCtx); err != nil {
		ctxlog.Warn(ctx, "supervisor did not shut down cleanly", "error", err)
	}
}
