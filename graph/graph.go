package graph

import (
	"fmt"
	"strings"
)

// DefaultPort is the port name used when a node declares no explicit ports.
const DefaultPort = "main"

// Node is a single step in a workflow graph.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Position   [2]int         `json:"position,omitempty"`
	// Credentials maps a credential type to a credential reference id.
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Port identifies one end of a connection on the receiving side.
type Port struct {
	NodeID string `json:"node"`
	Input  string `json:"input,omitempty"`
}

// Graph is a directed workflow graph. Connections is keyed by
// "<sourceNodeID>:<outputPort>" and lists the target ports fed by that
// output.
type Graph struct {
	Name        string            `json:"name"`
	Nodes       []Node            `json:"nodes"`
	Connections map[string][]Port `json:"connections"`
}

// ConnectionKey builds a connections-map key for a node output.
func ConnectionKey(nodeID, output string) string {
	if output == "" {
		output = DefaultPort
	}
	return nodeID + ":" + output
}

// SplitConnectionKey splits a connections-map key into node id and output
// port. Keys without a port separator default to DefaultPort.
func SplitConnectionKey(key string) (nodeID, output string) {
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, DefaultPort
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Connect appends a connection from a source node output to a target node
// input, creating the connections map if needed.
func (g *Graph) Connect(fromID, output, toID, input string) {
	if g.Connections == nil {
		g.Connections = make(map[string][]Port)
	}
	if input == "" {
		input = DefaultPort
	}
	key := ConnectionKey(fromID, output)
	g.Connections[key] = append(g.Connections[key], Port{NodeID: toID, Input: input})
}

// Clone returns a deep copy of the graph. Repair transformations operate on
// clones so a failed fix never corrupts the candidate under validation.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Name:  g.Name,
		Nodes: make([]Node, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		cn := n
		if n.Parameters != nil {
			cn.Parameters = cloneMap(n.Parameters)
		}
		if n.Credentials != nil {
			cn.Credentials = make(map[string]string, len(n.Credentials))
			for k, v := range n.Credentials {
				cn.Credentials[k] = v
			}
		}
		clone.Nodes[i] = cn
	}
	if g.Connections != nil {
		clone.Connections = make(map[string][]Port, len(g.Connections))
		for k, ports := range g.Connections {
			cp := make([]Port, len(ports))
			copy(cp, ports)
			clone.Connections[k] = cp
		}
	}
	return clone
}

// Shape returns a compact structural summary ("trigger -> fetch -> notify")
// used in feedback entries and log lines.
func (g *Graph) Shape() string {
	if len(g.Nodes) == 0 {
		return "empty"
	}
	types := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		types[i] = n.Type
	}
	return strings.Join(types, " -> ")
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		if list, ok := v.([]any); ok {
			cl := make([]any, len(list))
			copy(cl, list)
			out[k] = cl
			continue
		}
		out[k] = v
	}
	return out
}

// Validate checks the graph's own invariants that need no catalog: unique
// node ids and connection endpoints referencing existing nodes. Catalog-aware
// checks (ports, parameters, types) live in the validate package.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph: node with empty id")
		}
		if seen[n.ID] {
			return fmt.Errorf("graph: duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for key, ports := range g.Connections {
		src, _ := SplitConnectionKey(key)
		if !seen[src] {
			return fmt.Errorf("graph: connection source references unknown node %q", src)
		}
		for _, p := range ports {
			if !seen[p.NodeID] {
				return fmt.Errorf("graph: connection target references unknown node %q", p.NodeID)
			}
		}
	}
	return nil
}
