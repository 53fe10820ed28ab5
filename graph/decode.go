package graph

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var graphSchema = jsonschema.MustCompileString("workflow-graph.json", schemaJSON)

// Decode validates raw JSON against the workflow graph schema and decodes it
// into a Graph. Generation-provider output that wraps the document in a
// markdown fence is unwrapped first; anything that fails the schema gate is
// rejected before decoding.
func Decode(raw []byte) (*Graph, error) {
	raw = stripFences(raw)

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("graph: output is not valid JSON: %w", err)
	}
	if err := graphSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("graph: output does not match workflow schema: %w", err)
	}

	var g Graph
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("graph: decoding workflow: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
