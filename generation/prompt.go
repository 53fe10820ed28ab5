package generation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/intent"
	"github.com/kbukum/flowkit/template"
)

// Grounding is the context supplied to providers: the capability snapshot
// the output must stay within, plus any near-miss templates to imitate.
type Grounding struct {
	Schemas   []catalog.Schema
	Templates []template.Ranked
}

// NodeTypes returns the set of node types the grounding permits.
func (g Grounding) NodeTypes() map[string]bool {
	types := make(map[string]bool, len(g.Schemas))
	for _, s := range g.Schemas {
		types[s.Type] = true
	}
	return types
}

// BuildPrompt renders the generation prompt for an intent.
func BuildPrompt(in intent.Intent, grounding Grounding) string {
	var b strings.Builder

	b.WriteString("Produce a workflow graph as a single JSON document with fields ")
	b.WriteString(`"name", "nodes" and "connections". Use only the node types listed below.` + "\n\n")

	b.WriteString("Request: " + in.Text + "\n")
	fmt.Fprintf(&b, "Action: %s; trigger: %s; integrations: %s\n\n",
		in.Action, in.TriggerKind, strings.Join(in.Integrations, ", "))

	b.WriteString("Available node types:\n")
	for _, s := range grounding.Schemas {
		fmt.Fprintf(&b, "- %s (%s)", s.Type, s.Category)
		if len(s.RequiredParams) > 0 {
			names := make([]string, len(s.RequiredParams))
			for i, p := range s.RequiredParams {
				names[i] = fmt.Sprintf("%s:%s", p.Name, p.Type)
			}
			fmt.Fprintf(&b, " requires %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}

	if len(grounding.Templates) > 0 {
		b.WriteString("\nSimilar verified workflows for reference:\n")
		for _, r := range grounding.Templates {
			if r.Template.Graph == nil {
				continue
			}
			doc, err := json.Marshal(r.Template.Graph)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", r.Template.Name, doc)
		}
	}

	return b.String()
}

// digest returns a short stable digest of a prompt for attempt logging.
func digest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:12]
}
