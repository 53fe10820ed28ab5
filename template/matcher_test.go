package template

import (
	"testing"

	"github.com/kbukum/flowkit/intent"
)

func weatherIntent() intent.Intent {
	return intent.Intent{
		Action:       intent.ActionSend,
		Integrations: []string{"email", "weather"},
		TriggerKind:  intent.TriggerSchedule,
		Complexity:   4,
		Domain:       "communication",
	}
}

func candidates() []Template {
	return []Template{
		{
			ID: "tpl-weather-email", Action: intent.ActionSend,
			TriggerKind: intent.TriggerSchedule, Domain: "communication",
			Integrations: []string{"email", "weather"}, Complexity: 4, Popularity: 120,
		},
		{
			ID: "tpl-slack-digest", Action: intent.ActionSend,
			TriggerKind: intent.TriggerSchedule, Domain: "communication",
			Integrations: []string{"slack", "rss"}, Complexity: 5, Popularity: 400,
		},
		{
			ID: "tpl-sheet-backup", Action: intent.ActionSync,
			TriggerKind: intent.TriggerManual, Domain: "productivity",
			Integrations: []string{"google-sheets"}, Complexity: 3, Popularity: 15,
		},
	}
}

func TestMatch_ExactIntegrationSetWins(t *testing.T) {
	m := NewMatcher(Weights{})
	ranked := m.Match(weatherIntent(), candidates())

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked templates, got %d", len(ranked))
	}
	if ranked[0].Template.ID != "tpl-weather-email" {
		t.Errorf("expected exact integration match first, got %s", ranked[0].Template.ID)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Error("expected strictly descending scores for distinct matches")
	}
}

func TestMatch_ConfidenceNormalized(t *testing.T) {
	m := NewMatcher(Weights{})
	ranked := m.Match(weatherIntent(), candidates())

	for _, r := range ranked {
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("%s: confidence out of range: %f", r.Template.ID, r.Confidence)
		}
	}
	if ranked[0].Confidence < 0.8 {
		t.Errorf("expected near-perfect confidence for exact match, got %f", ranked[0].Confidence)
	}
}

func TestMatch_PartialIntegrationBeatsNone(t *testing.T) {
	m := NewMatcher(Weights{})
	in := weatherIntent()

	partial := Template{ID: "partial", Integrations: []string{"email", "slack"}}
	none := Template{ID: "none", Integrations: []string{"jira"}}

	ranked := m.Match(in, []Template{none, partial})
	if ranked[0].Template.ID != "partial" {
		t.Errorf("expected partial integration match first, got %s", ranked[0].Template.ID)
	}
}

func TestMatch_PopularityIsLogScaledAndCapped(t *testing.T) {
	m := NewMatcher(Weights{})
	in := intent.Intent{Action: intent.ActionSend}

	modest := Template{ID: "modest", Action: intent.ActionSend, Popularity: 100}
	viral := Template{ID: "viral", Action: intent.ActionSend, Popularity: 10_000_000}

	ranked := m.Match(in, []Template{modest, viral})
	diff := ranked[0].Score - ranked[1].Score
	if diff > DefaultWeights().PopularityCap {
		t.Errorf("popularity advantage exceeds cap: %f", diff)
	}
}

func TestMatch_ComplexityProximity(t *testing.T) {
	m := NewMatcher(Weights{})
	in := intent.Intent{Complexity: 5}

	close := Template{ID: "close", Complexity: 5}
	far := Template{ID: "far", Complexity: 10}

	ranked := m.Match(in, []Template{far, close})
	if ranked[0].Template.ID != "close" {
		t.Errorf("expected closer complexity first, got %s", ranked[0].Template.ID)
	}
}

func TestMatch_EmptyCandidates(t *testing.T) {
	m := NewMatcher(Weights{})
	if got := m.Match(weatherIntent(), nil); len(got) != 0 {
		t.Errorf("expected empty ranking, got %d", len(got))
	}
}
