package intent

import (
	"regexp"
	"strings"
)

// Action is the primary verb of an automation request.
type Action string

const (
	ActionCreate    Action = "create"
	ActionSend      Action = "send"
	ActionFetch     Action = "fetch"
	ActionTransform Action = "transform"
	ActionAnalyze   Action = "analyze"
	ActionSync      Action = "sync"
)

// TriggerKind is how the requested automation starts.
type TriggerKind string

const (
	TriggerSchedule TriggerKind = "schedule"
	TriggerWebhook  TriggerKind = "webhook"
	TriggerManual   TriggerKind = "manual"
)

// Intent is the structured form of a request.
type Intent struct {
	Action       Action      `json:"action"`
	Integrations []string    `json:"integrations"`
	TriggerKind  TriggerKind `json:"trigger_kind"`
	// Complexity is a 0..10 heuristic estimate of graph size.
	Complexity int    `json:"complexity"`
	Domain     string `json:"domain"`
	// Text is the original request, kept for prompting and feedback.
	Text string `json:"text"`
}

// actionPatterns is the ordered action table; first match wins.
var actionPatterns = []struct {
	action  Action
	pattern *regexp.Regexp
}{
	{ActionSend, regexp.MustCompile(`\b(send|email me|notify|message|alert|post)\b`)},
	{ActionFetch, regexp.MustCompile(`\b(fetch|get|pull|retrieve|scrape|download|check)\b`)},
	{ActionTransform, regexp.MustCompile(`\b(transform|convert|format|parse|clean|map)\b`)},
	{ActionAnalyze, regexp.MustCompile(`\b(analyze|analyse|summarize|summarise|classify|score|report on)\b`)},
	{ActionSync, regexp.MustCompile(`\b(sync|synchronize|mirror|copy .* to|backup|back up)\b`)},
	{ActionCreate, regexp.MustCompile(`\b(create|add|make|generate|build|record|log)\b`)},
}

// knownIntegrations maps the substring matched in the request to the
// canonical integration name and its domain.
var knownIntegrations = []struct {
	substr      string
	integration string
	domain      string
}{
	{"slack", "slack", "communication"},
	{"discord", "discord", "communication"},
	{"telegram", "telegram", "communication"},
	{"gmail", "email", "communication"},
	{"email", "email", "communication"},
	{"mail", "email", "communication"},
	{"google sheet", "google-sheets", "productivity"},
	{"spreadsheet", "google-sheets", "productivity"},
	{"sheets", "google-sheets", "productivity"},
	{"notion", "notion", "productivity"},
	{"airtable", "airtable", "productivity"},
	{"trello", "trello", "productivity"},
	{"calendar", "google-calendar", "productivity"},
	{"github", "github", "developer"},
	{"gitlab", "gitlab", "developer"},
	{"jira", "jira", "developer"},
	{"postgres", "postgres", "data"},
	{"database", "postgres", "data"},
	{"mysql", "mysql", "data"},
	{"weather", "weather", "data"},
	{"rss", "rss", "data"},
	{"stripe", "stripe", "commerce"},
	{"shopify", "shopify", "commerce"},
	{"twitter", "twitter", "social"},
	{"x.com", "twitter", "social"},
	{"linkedin", "linkedin", "social"},
	{"webhook", "webhook", "developer"},
	{"api", "http", "developer"},
	{"http", "http", "developer"},
}

var (
	schedulePattern = regexp.MustCompile(`\b(every|daily|weekly|monthly|hourly|each (day|week|month|hour|morning|evening)|at \d{1,2}(:\d{2})?\s?(am|pm)?|cron)\b`)
	webhookPattern  = regexp.MustCompile(`\b(when|whenever|on new|on each|as soon as|receives?|incoming|is (created|updated|submitted|received))\b`)

	conditionPattern = regexp.MustCompile(`\b(if|unless|only when|depending|filter|except)\b`)
	transformPattern = regexp.MustCompile(`\b(transform|convert|format|parse|extract|summarize|summarise|translate)\b`)
	multiStepPattern = regexp.MustCompile(`\b(then|and then|after that|followed by|also)\b`)
)

// Extract parses text into an Intent. It is pure and deterministic.
func Extract(text string) Intent {
	lower := strings.ToLower(text)

	in := Intent{
		Action:      extractAction(lower),
		TriggerKind: extractTrigger(lower),
		Text:        text,
	}
	in.Integrations, in.Domain = extractIntegrations(lower)
	in.Complexity = estimateComplexity(lower, in)
	return in
}

func extractAction(lower string) Action {
	for _, entry := range actionPatterns {
		if entry.pattern.MatchString(lower) {
			return entry.action
		}
	}
	return ActionCreate
}

func extractTrigger(lower string) TriggerKind {
	if schedulePattern.MatchString(lower) {
		return TriggerSchedule
	}
	if webhookPattern.MatchString(lower) {
		return TriggerWebhook
	}
	return TriggerManual
}

func extractIntegrations(lower string) ([]string, string) {
	var names []string
	seen := make(map[string]bool)
	domain := "general"

	for _, entry := range knownIntegrations {
		if !strings.Contains(lower, entry.substr) || seen[entry.integration] {
			continue
		}
		seen[entry.integration] = true
		names = append(names, entry.integration)
		if domain == "general" {
			domain = entry.domain
		}
	}
	return names, domain
}

// estimateComplexity combines node-count signals from the phrasing into a
// 0..10 score. The weights are heuristic; consumers treat the score as a
// ranking signal and read any thresholds from configuration.
func estimateComplexity(lower string, in Intent) int {
	score := 2 // trigger + one action

	if n := len(in.Integrations); n > 1 {
		score += n - 1
	}
	if conditionPattern.MatchString(lower) {
		score += 2
	}
	if transformPattern.MatchString(lower) {
		score++
	}
	if in.TriggerKind == TriggerSchedule {
		score++
	}
	score += len(multiStepPattern.FindAllString(lower, 3))

	if score > 10 {
		score = 10
	}
	return score
}
