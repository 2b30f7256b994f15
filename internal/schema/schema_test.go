// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type child struct {
	Name string   `yaml:"name" docdesc:"Child name"`
	Tags []string `yaml:"tags,omitempty"`
}

type root struct {
	Title    string            `yaml:"title" docdesc:"Document title"`
	Labels   map[string]string `yaml:"labels,omitempty" docdesc:"Free form labels"`
	Count    int               `yaml:"count,omitempty"`
	Children []child           `yaml:"children,omitempty" docdesc:"Nested children"`
	Hidden   string            `yaml:"-"`
	internal string
}

func TestFields(t *testing.T) {
	fields, err := NewGenerator("t", "d").Fields(root{})
	require.NoError(t, err)
	require.Len(t, fields, 4)

	assert.Equal(t, Field{Name: "title", Type: "string", Description: "Document title", Required: true}, fields[0])
	assert.Equal(t, "string", fields[1].Values)
	assert.False(t, fields[1].Required)
	assert.Equal(t, "integer", fields[2].Type)

	children := fields[3]
	assert.Equal(t, "array", children.Type)
	require.NotNil(t, children.Items)
	assert.Equal(t, "object", children.Items.Type)
	require.Len(t, children.Items.Fields, 2)
	assert.Equal(t, "name", children.Items.Fields[0].Name)
	assert.True(t, children.Items.Fields[0].Required)
	assert.Equal(t, "string", children.Items.Fields[1].Items.Type)
}

func TestFields_NotStruct(t *testing.T) {
	_, err := NewGenerator("t", "d").Fields("nope")
	require.ErrorIs(t, err, ErrNotStruct)

	_, err = NewGenerator("t", "d").Fields(nil)
	require.ErrorIs(t, err, ErrNotStruct)
}

func TestWriteJSONSchema(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator("Root Schema", "A test").WriteJSONSchema(&buf, &root{}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "Root Schema", doc["title"])
	assert.Equal(t, []any{"title"}, doc["required"])
	assert.Equal(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, props, "Hidden")
	assert.NotContains(t, props, "internal")

	children, ok := props["children"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", children["type"])

	items, ok := children["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"name"}, items["required"])

	labels, ok := props["labels"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, labels["additionalProperties"])
}

func TestWriteMarkdownDoc(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator("Root Schema", "A test").WriteMarkdownDoc(&buf, root{}))

	out := buf.String()
	assert.Contains(t, out, "# Root Schema")
	assert.Contains(t, out, "| `title` | string | Yes | Document title |")
	assert.Contains(t, out, "| `labels` | map of string | No | Free form labels |")
	assert.Contains(t, out, "| `children` | object[] | No | Nested children |")
	assert.Contains(t, out, "## `children[]`")
	assert.Contains(t, out, "| `tags` | string[] | No |  |")
}
