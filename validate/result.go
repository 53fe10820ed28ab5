package validate

import "fmt"

// IssueKind classifies one validation finding.
type IssueKind string

const (
	IssueUnknownNodeType   IssueKind = "unknown_node_type"
	IssueMissingParameter  IssueKind = "missing_parameter"
	IssueTypeMismatch      IssueKind = "type_mismatch"
	IssueInvalidConnection IssueKind = "invalid_connection"
	IssueCycle             IssueKind = "cycle"
	IssueUnknownParameter  IssueKind = "unknown_parameter"
	IssueMissingCredential IssueKind = "missing_credential"
)

// Issue is one validation finding, attributed to a node where possible.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"node_id,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s on %s: %s", i.Kind, i.NodeID, i.Message)
}

// Result is the outcome of structural validation. Issues block deployment;
// Warnings do not but lower confidence.
type Result struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Issues     []Issue `json:"issues,omitempty"`
	Warnings   []Issue `json:"warnings,omitempty"`
}

const (
	issuePenalty   = 0.25
	warningPenalty = 0.05
)

// finalize sets Valid and Confidence from the accumulated findings.
func (r *Result) finalize() {
	r.Valid = len(r.Issues) == 0
	conf := 1.0 - issuePenalty*float64(len(r.Issues)) - warningPenalty*float64(len(r.Warnings))
	if conf < 0 {
		conf = 0
	}
	r.Confidence = conf
}

func (r *Result) issue(kind IssueKind, nodeID, param, message string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, NodeID: nodeID, Param: param, Message: message})
}

func (r *Result) warning(kind IssueKind, nodeID, param, message string) {
	r.Warnings = append(r.Warnings, Issue{Kind: kind, NodeID: nodeID, Param: param, Message: message})
}
