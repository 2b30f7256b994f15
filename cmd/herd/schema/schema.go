// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command for documenting the supervisor file.
package schema

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/herd/internal/config"
	"github.com/matt-FFFFFF/herd/internal/schema"
	"github.com/urfave/cli/v3"
)

const formatFlag = "format"

// SchemaCmd documents the supervisor file format.
var SchemaCmd = &cli.Command{
	Name:        "schema",
	Usage:       "Describe the supervisor file format",
	Description: "Print the supervisor file format as a YAML example, Markdown documentation or JSON Schema.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        formatFlag,
			Aliases:     []string{"o"},
			Usage:       "Output format: yaml, markdown, or json",
			DefaultText: "yaml",
			Value:       "yaml",
		},
	},
	Action: actionFunc,
}

// Example is the supervisor file printed by `herd schema`.
var Example = config.File{
	LogDir: "logs",
	Env:    map[string]string{"APP_ENV": "dev"},
	Instances: []config.Instance{
		{
			ID:   "web",
			Path: "python3",
			Args: []string{"-m", "http.server", "8080"},
		},
		{
			ID:       "worker",
			Path:     "/usr/local/bin/worker",
			Env:      map[string]string{"QUEUE": "default"},
			Detached: true,
			LogFile:  "logs/worker.out",
		},
	},
}

func generator() *schema.Generator {
	return schema.NewGenerator(
		"Herd Supervisor File",
		"Instances started and supervised by `herd run`. HCL files use one `instance \"<id>\"` block per instance.",
	)
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	switch strings.ToLower(cmd.String(formatFlag)) {
	case "yaml", "yml":
		return writeYAMLExample(w)
	case "markdown", "md":
		return generator().WriteMarkdownDoc(w, config.File{})
	case "json":
		return generator().WriteJSONSchema(w, config.File{})
	default:
		return cli.Exit(fmt.Sprintf("Invalid format: %s. Valid formats: yaml, markdown, json", cmd.String(formatFlag)), 1)
	}
}

func writeYAMLExample(w io.Writer) error {
	b, err := yaml.Marshal(Example)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "# herd supervisor file, see `herd schema -o markdown` for every field"); err != nil {
		return err
	}

	_, err = w.Write(b)

	return err
}
