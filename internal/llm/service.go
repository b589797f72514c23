// Package llm provides the language-model collaborator used by the agents for
// free-text interpretation and response phrasing. Collaborators absorb their
// own failures: every method returns a usable degraded value instead of an
// error, so agent state machines never branch on collaborator health.
package llm

import "context"

// Judgment is the discrete outcome of interpreting a yes/no answer.
type Judgment string

const (
	JudgmentYes    Judgment = "YES"
	JudgmentNo     Judgment = "NO"
	JudgmentUnsure Judgment = "UNSURE"
)

// DegradedMessage is returned by Generate when no model is reachable.
const DegradedMessage = "Sorry, my thinking is a bit cloudy right now. Let's stick to the basics."

// Linguistic certainty categories a model may emit for a diagnostic answer.
const (
	CategoryStrongYes = "STRONG_YES"
	CategoryMildYes   = "MILD_YES"
	CategoryUnsure    = "UNSURE"
	CategoryMildNo    = "MILD_NO"
	CategoryStrongNo  = "STRONG_NO"
)

// certaintyMap fixes the deterministic category-to-certainty mapping. The
// model only ever classifies; the certainty factor itself never comes from
// model output.
var certaintyMap = map[string]struct {
	judgment Judgment
	cf       float64
}{
	CategoryStrongYes: {JudgmentYes, 1.0},
	CategoryMildYes:   {JudgmentYes, 0.6},
	CategoryUnsure:    {JudgmentUnsure, 0.0},
	CategoryMildNo:    {JudgmentNo, 0.6},
	CategoryStrongNo:  {JudgmentNo, 1.0},
}

// MapCertainty converts a linguistic category into a judgment and a certainty
// factor. Unknown categories default to an unsure judgment with zero
// certainty.
func MapCertainty(category string) (Judgment, float64) {
	if m, ok := certaintyMap[category]; ok {
		return m.judgment, m.cf
	}
	return JudgmentUnsure, 0.0
}

// Service is the collaborator contract shared by all agents.
//
// Implementations never return errors. A failed or unavailable backend
// degrades to canned values: Generate returns DegradedMessage,
// InterpretCertainty returns (JudgmentUnsure, 0.0), ExtractPreferences
// returns an empty map and ExtractNumber reports no value found.
type Service interface {
	// Generate produces free text for a prompt, optionally prefixed with a
	// role context that frames the persona and constraints.
	Generate(ctx context.Context, prompt, roleContext string) string

	// InterpretCertainty classifies a user's answer to a diagnostic question
	// into a judgment plus a deterministic certainty factor in [0, 1].
	InterpretCertainty(ctx context.Context, text, questionContext string) (Judgment, float64)

	// ExtractPreferences turns natural taste language into weighted keywords
	// in [-1, 1], negative weights marking flavours to avoid.
	ExtractPreferences(ctx context.Context, text string) map[string]float64

	// ExtractNumber pulls the numeric value for a named parameter out of
	// free text. ok is false when no number could be found.
	ExtractNumber(ctx context.Context, text, parameter string) (value float64, ok bool)
}
