package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rdfgraph/internal/graph"
)

// Fixture is a graph described in YAML for the load command.
//
//	vertices:
//	  - key: alice
//	    label: person
//	    properties:
//	      - {key: name, value: Alice}
//	      - {key: nickname, value: Al, cardinality: list, meta: {source: census}}
//	edges:
//	  - {from: alice, to: bob, label: knows, properties: {since: 2020}}
type Fixture struct {
	// Vertices are created in order.
	Vertices []FixtureVertex `yaml:"vertices"`

	// Edges are created after every vertex, in order.
	Edges []FixtureEdge `yaml:"edges,omitempty"`
}

// FixtureVertex describes one vertex.
type FixtureVertex struct {
	// Key is a fixture-local handle referenced by edges. It is not stored;
	// identifiers are always assigned by the store.
	Key string `yaml:"key"`

	// Label defaults to graph.DefaultVertexLabel.
	Label string `yaml:"label,omitempty"`

	Properties []FixtureProperty `yaml:"properties,omitempty"`
}

// FixtureProperty describes one vertex property write.
type FixtureProperty struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`

	// Cardinality is "single", "set" or "list". Empty means the configured
	// policy for Key.
	Cardinality string `yaml:"cardinality,omitempty"`

	// Meta holds meta-properties attached to the vertex property.
	Meta map[string]any `yaml:"meta,omitempty"`
}

// FixtureEdge describes one edge between two fixture vertices.
type FixtureEdge struct {
	From       string         `yaml:"from"`
	To         string         `yaml:"to"`
	Label      string         `yaml:"label,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// LoadFixture reads and parses a fixture YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or references unknown vertices.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateFixture(&fixture); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	return &fixture, nil
}

// validateFixture checks references and cardinalities. Property keys and
// values are left to the graph, which reports them with its own errors.
func validateFixture(f *Fixture) error {
	if len(f.Vertices) == 0 {
		return fmt.Errorf("vertices list is required and must be non-empty")
	}

	keys := make(map[string]bool, len(f.Vertices))
	for i, v := range f.Vertices {
		if v.Key == "" {
			return fmt.Errorf("vertices[%d]: key is required", i)
		}
		if keys[v.Key] {
			return fmt.Errorf("vertices[%d]: duplicate key %q", i, v.Key)
		}
		keys[v.Key] = true

		for j, p := range v.Properties {
			if p.Cardinality == "" {
				continue
			}
			if _, err := graph.ParseCardinality(p.Cardinality); err != nil {
				return fmt.Errorf("vertices[%d].properties[%d]: %w", i, j, err)
			}
		}
	}

	for i, e := range f.Edges {
		if !keys[e.From] {
			return fmt.Errorf("edges[%d]: unknown vertex %q in from", i, e.From)
		}
		if !keys[e.To] {
			return fmt.Errorf("edges[%d]: unknown vertex %q in to", i, e.To)
		}
	}

	return nil
}
