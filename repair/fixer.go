package repair

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/validate"
)

// waitNodeType is the node type injected to absorb upstream rate limits.
const waitNodeType = "wait.delay"

// waitSeconds is the delay injected before a rate-limited node.
const waitSeconds = float64(30)

// Config bounds the auto-fix loop.
type Config struct {
	// MaxAttempts is the maximum number of fix-and-revalidate rounds per
	// request.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
}

// Fixer applies targeted transformations to failing graphs.
type Fixer struct {
	caps validate.Capabilities
	log  *logger.Logger
}

// NewFixer creates a fixer backed by the capability catalog.
func NewFixer(caps validate.Capabilities, log *logger.Logger) *Fixer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Fixer{caps: caps, log: log.WithComponent("repair")}
}

// FixStructural attempts to repair structural findings on a clone of g.
// It returns the clone, the descriptions of the fixes applied, and whether
// anything changed. The caller must re-validate the result.
func (f *Fixer) FixStructural(ctx context.Context, g *graph.Graph, res *validate.Result) (*graph.Graph, []string, bool) {
	clone := g.Clone()
	var applied []string

	for _, issue := range res.Issues {
		switch issue.Kind {
		case validate.IssueMissingParameter, validate.IssueTypeMismatch:
			if fix := f.applyDefault(ctx, clone, issue); fix != "" {
				applied = append(applied, fix)
			}
		case validate.IssueInvalidConnection:
			applied = append(applied, pruneDangling(clone)...)
		}
	}

	if len(applied) == 0 {
		return clone, nil, false
	}
	f.log.Info("structural fixes applied", logger.Fields("fixes", applied))
	return clone, applied, true
}

// applyDefault sets a missing or mistyped parameter to its schema default,
// when the schema declares one.
func (f *Fixer) applyDefault(ctx context.Context, g *graph.Graph, issue validate.Issue) string {
	if !f.setParamDefault(ctx, g, issue.NodeID, issue.Param) {
		return ""
	}
	return fmt.Sprintf("set %s.%s to schema default", issue.NodeID, issue.Param)
}

// setParamDefault writes the schema default for the named parameter onto the
// node, when the schema declares one.
func (f *Fixer) setParamDefault(ctx context.Context, g *graph.Graph, nodeID, name string) bool {
	node := g.NodeByID(nodeID)
	if node == nil {
		return false
	}
	schema, ok := f.caps.Lookup(ctx, node.Type)
	if !ok {
		return false
	}
	param := schema.Param(name)
	if param == nil || param.Default == nil {
		return false
	}
	if node.Parameters == nil {
		node.Parameters = make(map[string]any)
	}
	node.Parameters[name] = param.Default
	return true
}

// pruneDangling removes connections whose source or target node does not
// exist.
func pruneDangling(g *graph.Graph) []string {
	var applied []string
	for key, ports := range g.Connections {
		src, _ := graph.SplitConnectionKey(key)
		if g.NodeByID(src) == nil {
			delete(g.Connections, key)
			applied = append(applied, fmt.Sprintf("removed connection from missing node %s", src))
			continue
		}
		kept := ports[:0]
		for _, p := range ports {
			if g.NodeByID(p.NodeID) == nil {
				applied = append(applied, fmt.Sprintf("removed connection %s -> %s", src, p.NodeID))
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(g.Connections, key)
		} else {
			g.Connections[key] = kept
		}
	}
	return applied
}

// FixExecution diagnoses a failed simulated execution and, when the failure
// is auto-fixable and attributed to a node, applies the fix on a clone.
func (f *Fixer) FixExecution(ctx context.Context, g *graph.Graph, exec *validate.Execution) (*graph.Graph, Diagnosis, bool) {
	d := Diagnose(exec.RawError)
	if !d.AutoFixable || exec.FailedNodeID == "" || exec.FailedNodeID == validate.UnknownNode {
		return nil, d, false
	}

	clone := g.Clone()
	switch d.Kind {
	case KindRateLimited:
		if !insertWaitBefore(clone, exec.FailedNodeID) {
			return nil, d, false
		}
	case KindMissingParameter:
		param := extractParam(exec.RawError)
		if param == "" || !f.setParamDefault(ctx, clone, exec.FailedNodeID, param) {
			return nil, d, false
		}
	default:
		return nil, d, false
	}
	f.log.Info("execution fix applied", logger.Fields(
		logger.FieldNodeID, exec.FailedNodeID, "kind", string(d.Kind)))
	return clone, d, true
}

// FixRejection diagnoses an engine dry-run rejection and, when the message
// names a parameter and node with a declared schema default, injects the
// default on a clone.
func (f *Fixer) FixRejection(ctx context.Context, g *graph.Graph, message string) (*graph.Graph, Diagnosis, bool) {
	d := Diagnose(message)
	if d.Kind != KindMissingParameter {
		return nil, d, false
	}
	nodeID, param := extractNode(message), extractParam(message)
	if nodeID == "" || param == "" {
		return nil, d, false
	}

	clone := g.Clone()
	if !f.setParamDefault(ctx, clone, nodeID, param) {
		return nil, d, false
	}
	f.log.Info("rejection fix applied", logger.Fields(
		logger.FieldNodeID, nodeID, "param", param))
	return clone, d, true
}

// Engine messages are free text; these pull the named parameter and node
// out of the common phrasings.
var (
	paramRefRe = regexp.MustCompile(`(?i)(?:field|parameter|property) ["']?([\w.]+)["']?`)
	nodeRefRe  = regexp.MustCompile(`(?i)node ["']?([\w.-]+)["']?`)
)

func extractParam(raw string) string {
	if m := paramRefRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func extractNode(raw string) string {
	if m := nodeRefRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// insertWaitBefore rewires every inbound connection of nodeID through a new
// wait node. Returns false when the node has no inbound connections (a
// trigger cannot be delayed).
func insertWaitBefore(g *graph.Graph, nodeID string) bool {
	waitID := "wait_before_" + nodeID
	if g.NodeByID(waitID) != nil {
		// Already delayed in an earlier round; do not stack waits.
		return false
	}

	rewired := false
	for key, ports := range g.Connections {
		for i, p := range ports {
			if p.NodeID == nodeID {
				ports[i].NodeID = waitID
				ports[i].Input = graph.DefaultPort
				rewired = true
			}
		}
		g.Connections[key] = ports
	}
	if !rewired {
		return false
	}

	g.Nodes = append(g.Nodes, graph.Node{
		ID:         waitID,
		Type:       waitNodeType,
		Name:       "Wait",
		Parameters: map[string]any{"seconds": waitSeconds},
	})
	g.Connect(waitID, graph.DefaultPort, nodeID, graph.DefaultPort)
	return true
}
