package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/graph"
)

// Capabilities is the catalog surface structural validation reads.
type Capabilities interface {
	Lookup(ctx context.Context, nodeType string) (*catalog.Schema, bool)
	LoopTypes(ctx context.Context) map[string]bool
	Alternatives(ctx context.Context, nodeType string, limit int) []string
}

// Structural validates graphs against the capability catalog: node types
// must exist, required parameters must be present with the declared types,
// connections must reference declared ports, and the graph must be acyclic
// unless a cycle runs through a loop-semantics node.
type Structural struct {
	caps Capabilities
}

// NewStructural creates a structural validator.
func NewStructural(caps Capabilities) *Structural {
	return &Structural{caps: caps}
}

// Check validates g and returns the findings. It never mutates g.
func (s *Structural) Check(ctx context.Context, g *graph.Graph) *Result {
	res := &Result{}

	for i := range g.Nodes {
		s.checkNode(ctx, &g.Nodes[i], res)
	}
	s.checkConnections(ctx, g, res)

	if remaining := g.Cycle(s.caps.LoopTypes(ctx)); remaining != nil {
		res.issue(IssueCycle, "", "",
			fmt.Sprintf("cycle through nodes [%s] with no loop-semantics node", strings.Join(remaining, ", ")))
	}

	res.finalize()
	return res
}

func (s *Structural) checkNode(ctx context.Context, n *graph.Node, res *Result) {
	schema, ok := s.caps.Lookup(ctx, n.Type)
	if !ok {
		msg := fmt.Sprintf("node type %q is not in the capability catalog", n.Type)
		if alts := s.caps.Alternatives(ctx, n.Type, 3); len(alts) > 0 {
			msg += fmt.Sprintf(" (closest: %s)", strings.Join(alts, ", "))
		}
		res.issue(IssueUnknownNodeType, n.ID, "", msg)
		return
	}

	for _, p := range schema.RequiredParams {
		val, present := n.Parameters[p.Name]
		if !present {
			res.issue(IssueMissingParameter, n.ID, p.Name,
				fmt.Sprintf("required parameter %q is missing", p.Name))
			continue
		}
		if !typeMatches(p.Type, val) {
			res.issue(IssueTypeMismatch, n.ID, p.Name,
				fmt.Sprintf("parameter %q must be %s", p.Name, p.Type))
		}
	}
	for name := range n.Parameters {
		if schema.Param(name) == nil {
			res.warning(IssueUnknownParameter, n.ID, name,
				fmt.Sprintf("parameter %q is not declared by %s", name, n.Type))
		}
	}

	// Credential wiring is checked at deploy time by the engine; here it
	// only lowers confidence.
	if schema.CredentialType != "" && n.Credentials[schema.CredentialType] == "" {
		res.warning(IssueMissingCredential, n.ID, "",
			fmt.Sprintf("node needs a %q credential", schema.CredentialType))
	}
}

func (s *Structural) checkConnections(ctx context.Context, g *graph.Graph, res *Result) {
	for key, targets := range g.Connections {
		fromID, output := graph.SplitConnectionKey(key)

		from := g.NodeByID(fromID)
		if from == nil {
			res.issue(IssueInvalidConnection, fromID, "",
				fmt.Sprintf("connection source %q does not exist", fromID))
			continue
		}
		if schema, ok := s.caps.Lookup(ctx, from.Type); ok && !schema.HasOutput(output) {
			res.issue(IssueInvalidConnection, fromID, "",
				fmt.Sprintf("node type %s has no output port %q", from.Type, output))
		}

		for _, t := range targets {
			to := g.NodeByID(t.NodeID)
			if to == nil {
				res.issue(IssueInvalidConnection, fromID, "",
					fmt.Sprintf("connection target %q does not exist", t.NodeID))
				continue
			}
			input := t.Input
			if input == "" {
				input = graph.DefaultPort
			}
			if schema, ok := s.caps.Lookup(ctx, to.Type); ok && !schema.HasInput(input) {
				res.issue(IssueInvalidConnection, t.NodeID, "",
					fmt.Sprintf("node type %s has no input port %q", to.Type, input))
			}
		}
	}
}

// typeMatches reports whether a JSON-decoded value satisfies the declared
// parameter type. Numbers arrive as float64, objects as map[string]any.
func typeMatches(t catalog.ParamType, val any) bool {
	switch t {
	case catalog.TypeString:
		_, ok := val.(string)
		return ok
	case catalog.TypeNumber:
		switch val.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case catalog.TypeBoolean:
		_, ok := val.(bool)
		return ok
	case catalog.TypeObject:
		_, ok := val.(map[string]any)
		return ok
	case catalog.TypeArray:
		_, ok := val.([]any)
		return ok
	}
	return true
}
