package template

import (
	"math"
	"sort"

	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/intent"
)

// Template is a previously verified workflow graph with matching metadata.
type Template struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Action       intent.Action      `json:"action"`
	TriggerKind  intent.TriggerKind `json:"trigger_kind"`
	Domain       string             `json:"domain"`
	Integrations []string           `json:"integrations"`
	Complexity   int                `json:"complexity"`
	// Popularity counts successful deployments of this template.
	Popularity int          `json:"popularity"`
	Graph      *graph.Graph `json:"graph"`
}

// Ranked is a template with its match score.
type Ranked struct {
	Template   Template `json:"template"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
}

// Weights are the scoring weights, highest-signal first. Policy, not law.
type Weights struct {
	ExactIntegrations   float64 `yaml:"exact_integrations" mapstructure:"exact_integrations"`
	PartialIntegration  float64 `yaml:"partial_integration" mapstructure:"partial_integration"`
	Action              float64 `yaml:"action" mapstructure:"action"`
	Trigger             float64 `yaml:"trigger" mapstructure:"trigger"`
	Domain              float64 `yaml:"domain" mapstructure:"domain"`
	PopularityCap       float64 `yaml:"popularity_cap" mapstructure:"popularity_cap"`
	ComplexityProximity float64 `yaml:"complexity_proximity" mapstructure:"complexity_proximity"`
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		ExactIntegrations:   40,
		PartialIntegration:  10,
		Action:              15,
		Trigger:             10,
		Domain:              5,
		PopularityCap:       10,
		ComplexityProximity: 5,
	}
}

// maxScore is the highest score any template can reach under w.
func (w Weights) maxScore() float64 {
	return w.ExactIntegrations + w.Action + w.Trigger + w.Domain + w.PopularityCap + w.ComplexityProximity
}

// Matcher ranks templates against intents.
type Matcher struct {
	weights Weights
}

// NewMatcher creates a matcher with the given weights; zero weights fall
// back to defaults.
func NewMatcher(w Weights) *Matcher {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Matcher{weights: w}
}

// Match scores candidates against the intent and returns them sorted
// descending by score. Confidence is score relative to the maximum possible.
func (m *Matcher) Match(in intent.Intent, candidates []Template) []Ranked {
	maxScore := m.weights.maxScore()

	ranked := make([]Ranked, 0, len(candidates))
	for _, tpl := range candidates {
		score := m.score(in, tpl)
		ranked = append(ranked, Ranked{
			Template:   tpl,
			Score:      score,
			Confidence: score / maxScore,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func (m *Matcher) score(in intent.Intent, tpl Template) float64 {
	var score float64

	matched := 0
	for _, want := range in.Integrations {
		for _, have := range tpl.Integrations {
			if want == have {
				matched++
				break
			}
		}
	}
	switch {
	case len(in.Integrations) > 0 && matched == len(in.Integrations) && matched == len(tpl.Integrations):
		score += m.weights.ExactIntegrations
	case matched > 0:
		score += float64(matched) * m.weights.PartialIntegration
	}

	if tpl.Action == in.Action {
		score += m.weights.Action
	}
	if tpl.TriggerKind == in.TriggerKind {
		score += m.weights.Trigger
	}
	if tpl.Domain != "" && tpl.Domain == in.Domain {
		score += m.weights.Domain
	}

	if tpl.Popularity > 0 {
		pop := math.Log2(float64(tpl.Popularity) + 1)
		if pop > m.weights.PopularityCap {
			pop = m.weights.PopularityCap
		}
		score += pop
	}

	proximity := m.weights.ComplexityProximity - math.Abs(float64(tpl.Complexity-in.Complexity))
	if proximity > 0 {
		score += proximity
	}

	return score
}
