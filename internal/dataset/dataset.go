// Package dataset loads graph documents of the form
//
//	{"nodes": [{"id": "Myriel", "group": 1}], "links": [{"source": "Myriel", "target": "Napoleon", "value": 1}]}
//
// from a file or an HTTP URL. Node and link endpoint identifiers may be
// strings or numbers. Node fields other than id, group, x and y are kept
// as an opaque payload.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"gopkg.in/yaml.v3"
)

type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

type Node struct {
	ID      string
	Group   int
	X, Y    *float64
	Payload map[string]any
}

type Link struct {
	Source string
	Target string
	Value  float64
}

// LoadError reports a dataset that could not be fetched, parsed or resolved.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Decode parses a JSON document.
func Decode(r io.Reader) (*Graph, error) {
	var g Graph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// DecodeYAML parses the same document written as YAML.
func DecodeYAML(r io.Reader) (*Graph, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Validate checks that the graph is non-empty, node ids are unique and
// every link endpoint exists.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return dynamo.ErrEmptyDataset
	}
	nodes, edges := g.Dataset()
	_, _, _, err := dynamo.Resolve(nodes, edges)
	return err
}

// Dataset converts the document into simulator input.
func (g *Graph) Dataset() ([]dynamo.Node, []dynamo.Edge) {
	nodes := make([]dynamo.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = dynamo.Node{ID: n.ID, Group: n.Group, X: n.X, Y: n.Y, Payload: n.Payload}
	}
	edges := make([]dynamo.Edge, len(g.Links))
	for i, l := range g.Links {
		edges[i] = dynamo.Edge{Source: l.Source, Target: l.Target, Value: l.Value}
	}
	return nodes, edges
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	raw, ok := fields["id"]
	if !ok {
		return fmt.Errorf("node without id")
	}
	id, err := identifier(raw)
	if err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	*n = Node{ID: id}

	if raw, ok := fields["group"]; ok {
		if err := json.Unmarshal(raw, &n.Group); err != nil {
			return fmt.Errorf("node %q group: %w", id, err)
		}
	}
	if n.X, err = coordinate(fields["x"]); err != nil {
		return fmt.Errorf("node %q x: %w", id, err)
	}
	if n.Y, err = coordinate(fields["y"]); err != nil {
		return fmt.Errorf("node %q y: %w", id, err)
	}

	for k, raw := range fields {
		switch k {
		case "id", "group", "x", "y":
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if n.Payload == nil {
			n.Payload = make(map[string]any)
		}
		n.Payload[k] = v
	}
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Payload)+4)
	for k, v := range n.Payload {
		out[k] = v
	}
	out["id"] = n.ID
	out["group"] = n.Group
	if n.X != nil && n.Y != nil {
		out["x"], out["y"] = *n.X, *n.Y
	}
	return json.Marshal(out)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source json.RawMessage `json:"source"`
		Target json.RawMessage `json:"target"`
		Value  *float64        `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	src, err := identifier(raw.Source)
	if err != nil {
		return fmt.Errorf("link source: %w", err)
	}
	dst, err := identifier(raw.Target)
	if err != nil {
		return fmt.Errorf("link target: %w", err)
	}
	*l = Link{Source: src, Target: dst, Value: 1}
	if raw.Value != nil {
		l.Value = *raw.Value
	}
	return nil
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source string  `json:"source"`
		Target string  `json:"target"`
		Value  float64 `json:"value"`
	}{l.Source, l.Target, l.Value})
}

func identifier(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing identifier")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("empty identifier")
		}
		return s, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", fmt.Errorf("identifier %s is neither string nor number", raw)
	}
	return num.String(), nil
}

func coordinate(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
