// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctl implements the herd subcommands that talk to a running supervisor.
package ctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/herd/internal/color"
	"github.com/matt-FFFFFF/herd/internal/control"
	"github.com/urfave/cli/v3"
)

const (
	addrFlag = "addr"
	idArg    = "id"
)

// ErrInvalidEnv is returned when an --env value is not of the form KEY=VALUE.
var ErrInvalidEnv = errors.New("environment entries must be KEY=VALUE")

// addr is shared by every control subcommand.
func addr() cli.Flag {
	return &cli.StringFlag{
		Name:    addrFlag,
		Usage:   "Address of the supervisor control API",
		Value:   control.DefaultAddr,
		Sources: cli.EnvVars("HERD_ADDR"),
	}
}

func client(cmd *cli.Command) *control.Client {
	return control.NewClient(cmd.String(addrFlag))
}

func idArgument() cli.Argument {
	return &cli.StringArg{Name: idArg}
}

// requireID returns the id argument or a usage error.
func requireID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg(idArg)
	if id == "" {
		return "", cli.Exit(fmt.Sprintf("%s: an instance id is required", cmd.Name), 2)
	}

	return id, nil
}

// parseEnv turns KEY=VALUE entries into a map.
func parseEnv(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(entries))

	for _, kv := range entries {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, kv)
		}

		env[k] = v
	}

	return env, nil
}

// printJSON writes v as indented JSON, coloured when the terminal supports it.
func printJSON(w io.Writer, v any) error {
	f := colorjson.NewFormatter()
	f.Indent = 2
	f.DisabledColor = !color.Enabled()

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	// colorjson only walks the generic JSON shapes.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	b, err := f.Marshal(generic)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

// failed converts an API error into an exit error without a stack of wrapping.
func failed(err error) error {
	if errors.Is(err, control.ErrUnreachable) {
		return cli.Exit("no supervisor is listening, start one with `herd run`", 1)
	}

	return cli.Exit(err.Error(), 1)
}

func notFound(id string) error {
	return cli.Exit(fmt.Sprintf("instance %q not found", id), 1)
}
