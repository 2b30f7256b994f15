// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package console is an interactive prompt for a running supervisor.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/herd/internal/display"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/peterh/liner"
)

const prompt = "herd> "

// Supervisor is the part of supervisor.Manager the console drives.
type Supervisor interface {
	List() []supervisor.Summary
	Get(id string) (supervisor.Detail, bool)
	Stop(ctx context.Context, id string, opts supervisor.StopOptions) bool
	StopAll(ctx context.Context, opts supervisor.StopOptions) (int, error)
	RestartAndWait(ctx context.Context, id string, opts supervisor.RestartOptions) (supervisor.Instance, error)
	SendSignal(ctx context.Context, id, sig string) bool
	GetLogs(id string, opts supervisor.LogOptions) (string, bool, error)
}

var commands = []string{"list", "ps", "get", "stop", "stop-all", "restart", "signal", "logs", "help", "quit", "exit"}

const help = `commands:
  list | ps                   list running instances
  get <id>                    show one instance
  stop <id> [force]           stop an instance
  stop-all [force]            stop every instance
  restart <id>                restart an instance and wait for it
  signal <id> <SIG>           send a signal, e.g. HUP or 1
  logs <id> [tail] [head]     print log lines, tail first then head
  quit | exit                 leave the console`

// Run reads commands until quit, Ctrl+C, EOF or ctx cancellation.
func Run(ctx context.Context, sup Supervisor, out io.Writer) error {
	line := liner.NewLiner()
	defer func() {
		_ = line.Close()
	}()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completer(sup))

	fmt.Fprintln(out, "Entering interactive mode, type `help` for commands, `quit` or Ctrl+C to leave.") //nolint:errcheck

	for ctx.Err() == nil {
		input, err := line.Prompt(prompt)

		switch {
		case err == nil:
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("reading line: %w", err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		line.AppendHistory(input)

		if quit := Execute(ctx, sup, input, out); quit {
			return nil
		}
	}

	return nil
}

// Execute runs one command line and reports whether the console should exit.
func Execute(ctx context.Context, sup Supervisor, input string, out io.Writer) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}

	cmd, args := fields[0], fields[1:]

	say := func(format string, a ...any) {
		fmt.Fprintf(out, format+"\n", a...) //nolint:errcheck
	}

	switch cmd {
	case "quit", "exit":
		return true

	case "help":
		say("%s", help)

	case "list", "ps":
		say("%s", display.Table(sup.List()))

	case "get":
		if len(args) != 1 {
			say("usage: get <id>")
			return false
		}

		d, ok := sup.Get(args[0])
		if !ok {
			say("%s: not running", args[0])
			return false
		}

		b, _ := json.MarshalIndent(d, "", "  ")
		say("%s", b)

	case "stop":
		if len(args) < 1 {
			say("usage: stop <id> [force]")
			return false
		}

		opts := supervisor.StopOptions{Force: len(args) > 1 && args[1] == "force"}
		if !sup.Stop(ctx, args[0], opts) {
			say("%s: not running", args[0])
			return false
		}

		say("%s: stop signal sent", args[0])

	case "stop-all":
		n, err := sup.StopAll(ctx, supervisor.StopOptions{Force: len(args) > 0 && args[0] == "force"})
		say("stopped %d instance(s)", n)

		if err != nil {
			say("errors: %v", err)
		}

	case "restart":
		if len(args) != 1 {
			say("usage: restart <id>")
			return false
		}

		inst, err := sup.RestartAndWait(ctx, args[0], supervisor.RestartOptions{})
		if err != nil {
			say("restart %s: %v", args[0], err)
			return false
		}

		say("%s: restarted with pid %d", inst.ID, inst.Pid)

	case "signal":
		if len(args) != 2 { //nolint:mnd
			say("usage: signal <id> <SIG>")
			return false
		}

		if !sup.SendSignal(ctx, args[0], args[1]) {
			say("%s: signal %s not delivered", args[0], args[1])
			return false
		}

		say("%s: sent %s", args[0], args[1])

	case "logs":
		executeLogs(sup, args, say)

	default:
		say("unknown command %q, type `help` for commands", cmd)
	}

	return false
}

func executeLogs(sup Supervisor, args []string, say func(string, ...any)) {
	if len(args) < 1 || len(args) > 3 {
		say("usage: logs <id> [tail] [head]")
		return
	}

	var opts supervisor.LogOptions

	for i, dst := range []**int{&opts.Tail, &opts.Head} {
		if len(args) <= i+1 {
			break
		}

		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			say("invalid number %q", args[i+1])
			return
		}

		*dst = &n
	}

	content, ok, err := sup.GetLogs(args[0], opts)

	switch {
	case err != nil:
		say("logs %s: %v", args[0], err)
	case !ok:
		say("%s: no log file", args[0])
	case content != "":
		say("%s", content)
	}
}

func completer(sup Supervisor) liner.Completer {
	return func(line string) []string {
		fields := strings.Fields(line)
		trailingSpace := strings.HasSuffix(line, " ")

		var out []string

		if len(fields) == 0 || (len(fields) == 1 && !trailingSpace) {
			prefix := ""
			if len(fields) == 1 {
				prefix = fields[0]
			}

			for _, c := range commands {
				if strings.HasPrefix(c, prefix) {
					out = append(out, c)
				}
			}

			return out
		}

		if len(fields) > 2 || (len(fields) == 2 && trailingSpace) {
			return nil
		}

		prefix := ""
		if len(fields) == 2 {
			prefix = fields[1]
		}

		for _, s := range sup.List() {
			if strings.HasPrefix(s.ID, prefix) {
				out = append(out, fields[0]+" "+s.ID)
			}
		}

		return out
	}
}
