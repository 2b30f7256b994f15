// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema describes configuration structs as JSON Schema and Markdown.
// Field names come from the yaml tag, descriptions from the docdesc tag.
// A field is required unless its yaml tag carries omitempty.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// ErrNotStruct is returned when the definition is not a struct or a pointer to one.
var ErrNotStruct = errors.New("expected struct type")

// Field represents a field in a JSON schema.
type Field struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Fields      []Field `json:"fields,omitempty"` // for objects built from structs
	Items       *Field  `json:"items,omitempty"`  // for arrays
	Values      string  `json:"values,omitempty"` // element type of maps
}

// Generator turns struct definitions into schema documents.
type Generator struct {
	title       string
	description string
}

// NewGenerator creates a generator whose documents carry title and description.
func NewGenerator(title, description string) *Generator {
	return &Generator{title: title, description: description}
}

// Fields extracts the schema fields of def in declaration order.
func (g *Generator) Fields(def any) ([]Field, error) {
	return g.extractFields(reflect.TypeOf(def))
}

// JSONSchema returns a draft 2020-12 JSON Schema for def.
func (g *Generator) JSONSchema(def any) (map[string]any, error) {
	fields, err := g.Fields(def)
	if err != nil {
		return nil, err
	}

	root := g.objectSchema(fields)
	root["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	root["title"] = g.title
	root["description"] = g.description

	return root, nil
}

// WriteJSONSchema writes the indented JSON Schema for def.
func (g *Generator) WriteJSONSchema(w io.Writer, def any) error {
	root, err := g.JSONSchema(def)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

// WriteMarkdownDoc writes one table per struct reachable from def.
func (g *Generator) WriteMarkdownDoc(w io.Writer, def any) error {
	fields, err := g.Fields(def)
	if err != nil {
		return err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n%s\n", g.title, g.description)
	writeTable(&sb, "Root", fields)

	_, err = io.WriteString(w, sb.String())

	return err
}

func writeTable(sb *strings.Builder, heading string, fields []Field) {
	fmt.Fprintf(sb, "\n## %s\n\n", heading)
	sb.WriteString("| Field | Type | Required | Description |\n")
	sb.WriteString("|-------|------|----------|-------------|\n")

	var nested []Field

	for _, f := range fields {
		required := "No"
		if f.Required {
			required = "Yes"
		}

		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", f.Name, typeLabel(f), required, f.Description)

		switch {
		case len(f.Fields) > 0:
			nested = append(nested, f)
		case f.Items != nil && len(f.Items.Fields) > 0:
			nested = append(nested, Field{Name: f.Name + "[]", Fields: f.Items.Fields})
		}
	}

	for _, n := range nested {
		writeTable(sb, "`"+n.Name+"`", n.Fields)
	}
}

func typeLabel(f Field) string {
	switch {
	case f.Items != nil:
		return f.Items.Type + "[]"
	case f.Values != "":
		return "map of " + f.Values
	default:
		return f.Type
	}
}

func (g *Generator) objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := []string{}

	for _, f := range fields {
		properties[f.Name] = g.property(f)

		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func (g *Generator) property(f Field) map[string]any {
	var prop map[string]any

	switch {
	case len(f.Fields) > 0:
		prop = g.objectSchema(f.Fields)
	case f.Items != nil:
		prop = map[string]any{"type": "array", "items": g.property(*f.Items)}
	case f.Values != "":
		prop = map[string]any{"type": "object", "additionalProperties": map[string]any{"type": f.Values}}
	default:
		prop = map[string]any{"type": f.Type}
	}

	if f.Description != "" {
		prop["description"] = f.Description
	}

	return prop
}

// extractFields extracts schema fields from a struct type using reflection.
func (g *Generator) extractFields(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, ErrNotStruct
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %s", ErrNotStruct, t.Kind())
	}

	var fields []Field

	for i := range t.NumField() {
		sf := t.Field(i)

		if !sf.IsExported() {
			continue
		}

		if sf.Anonymous {
			embedded, err := g.extractFields(sf.Type)
			if err != nil {
				return nil, err
			}

			fields = append(fields, embedded...)

			continue
		}

		f, ok, err := g.fieldFor(sf)
		if err != nil {
			return nil, err
		}

		if ok {
			fields = append(fields, f)
		}
	}

	return fields, nil
}

// fieldFor converts a struct field. ok is false for fields hidden with `yaml:"-"`.
func (g *Generator) fieldFor(sf reflect.StructField) (Field, bool, error) {
	tag := sf.Tag.Get("yaml")
	if tag == "-" {
		return Field{}, false, nil
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(sf.Name)
	}

	f := Field{
		Name:        name,
		Description: sf.Tag.Get("docdesc"),
		Required:    !strings.Contains(opts, "omitempty"),
	}

	if err := g.describeType(&f, sf.Type); err != nil {
		return Field{}, false, err
	}

	return f, true, nil
}

func (g *Generator) describeType(f *Field, t reflect.Type) error {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	f.Type = schemaType(t)

	switch t.Kind() {
	case reflect.Struct:
		nested, err := g.extractFields(t)
		if err != nil {
			return err
		}

		f.Fields = nested
	case reflect.Slice, reflect.Array:
		item := &Field{}
		if err := g.describeType(item, t.Elem()); err != nil {
			return err
		}

		f.Items = item
	case reflect.Map:
		f.Values = schemaType(t.Elem())
	}

	return nil
}

// schemaType converts a Go type to a JSON schema type.
func schemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return schemaType(t.Elem())
	default:
		return "string"
	}
}
