package repair

import "regexp"

// Kind classifies a raw failure message.
type Kind string

const (
	KindRateLimited      Kind = "rate_limited"
	KindAuthFailure      Kind = "auth_failure"
	KindConnection       Kind = "connection"
	KindTimeout          Kind = "timeout"
	KindMissingParameter Kind = "missing_parameter"
	KindMissingData      Kind = "missing_data"
	KindBadExpression    Kind = "bad_expression"
	KindUnknown          Kind = "unknown"
)

// Diagnosis is the classification of one raw failure message.
type Diagnosis struct {
	Kind Kind `json:"kind"`
	// AutoFixable marks kinds the fixer has a transformation for.
	AutoFixable bool `json:"auto_fixable"`
	// Hint is a short human-readable explanation for feedback entries.
	Hint string `json:"hint"`
}

// patterns is the ordered classification table; first match wins. Raw
// engine errors are free text, so matching stays deliberately loose.
var patterns = []struct {
	kind        Kind
	re          *regexp.Regexp
	autoFixable bool
	hint        string
}{
	{KindRateLimited, regexp.MustCompile(`(?i)(rate limit|too many requests|429|quota exceeded)`),
		true, "upstream rate limit; a delay before the failing node may help"},
	{KindAuthFailure, regexp.MustCompile(`(?i)(unauthorized|401|403|forbidden|invalid (api )?key|authentication)`),
		false, "credential problem; the user must fix the connected account"},
	{KindConnection, regexp.MustCompile(`(?i)(connection refused|no such host|ECONNREFUSED|dns|unreachable)`),
		false, "upstream endpoint unreachable"},
	{KindTimeout, regexp.MustCompile(`(?i)(timed? ?out|deadline exceeded)`),
		false, "upstream call timed out; an engine or provider concern, not a graph defect"},
	{KindMissingParameter, regexp.MustCompile(`(?i)missing (required )?(field|parameter|property)`),
		true, "a parameter is absent; the schema default may apply"},
	{KindMissingData, regexp.MustCompile(`(?i)(undefined|null|missing (field|property|value)|cannot read)`),
		false, "the node received data it did not expect"},
	{KindBadExpression, regexp.MustCompile(`(?i)(expression|syntax error|invalid template|parse error)`),
		false, "a node parameter contains a malformed expression"},
}

// Diagnose classifies a raw failure message.
func Diagnose(raw string) Diagnosis {
	for _, p := range patterns {
		if p.re.MatchString(raw) {
			return Diagnosis{Kind: p.kind, AutoFixable: p.autoFixable, Hint: p.hint}
		}
	}
	return Diagnosis{Kind: KindUnknown, Hint: "unrecognized failure"}
}
