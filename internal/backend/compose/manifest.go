// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the rendered shape of a compose manifest.
//
// Why MapSlice instead of map[string]*service?
//
// A compose file is read by humans as much as by the runtime. Services are
// emitted in topological order with the synthesis unit last, so the file
// reads top to bottom in execution order and renders byte-identically for
// the same input graph. A Go map would surrender both properties.
package compose

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"
)

// Manifest is a fully laid out compose document, ready to render.
type Manifest struct {
	services yaml.MapSlice
	volume   string
}

// service is one deployable unit of the manifest.
type service struct {
	Image     string            `yaml:"image"`
	Command   []string          `yaml:"command"`
	DependsOn yaml.MapSlice     `yaml:"depends_on,omitempty"`
	Volumes   []string          `yaml:"volumes,omitempty"`
	Labels    map[string]string `yaml:"labels,omitempty"`
	Framework yaml.MapSlice     `yaml:"x-pipegraph-framework,omitempty"`
}

// dependsOn gates a service on a predecessor finishing successfully, not
// merely starting.
type dependsOn struct {
	Condition string `yaml:"condition"`
}

const completedSuccessfully = "service_completed_successfully"

// Render serializes the manifest as a compose YAML document.
func (m *Manifest) Render() ([]byte, error) {
	doc := yaml.MapSlice{
		{Key: "services", Value: m.services},
		{Key: "volumes", Value: yaml.MapSlice{
			{Key: m.volume, Value: map[string]any{}},
		}},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering compose manifest: %w", err)
	}
	return out, nil
}

// sortedMapSlice converts a free-form config map into a key-ordered MapSlice
// so rendering stays deterministic regardless of map iteration order.
func sortedMapSlice(m map[string]any) yaml.MapSlice {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = sortedMapSlice(nested)
		}
		slice = append(slice, yaml.MapItem{Key: k, Value: v})
	}
	return slice
}
