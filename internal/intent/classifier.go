// Package intent routes each fresh user turn to the agent that should own it.
// Classification is hybrid: a bean-name rule fires first, then a pluggable
// classifier labels the remaining text.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/barista/pkg/blackboard"
)

// Classifier labels free text with the intent that should handle it.
type Classifier interface {
	Classify(ctx context.Context, text string) (blackboard.Intent, error)
}

// problemKeywords flag a turn as a taste complaint.
var problemKeywords = []string{"sour", "bitter", "weak", "bad", "tastes", "acidic", "hollow"}

// HasProblemKeyword reports whether the text reads as a taste complaint.
func HasProblemKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range problemKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// preferenceKeywords flag a turn as asking for a recommendation.
var preferenceKeywords = []string{
	"recommend", "suggest", "prefer", "looking for", "want something",
	"in the mood", "fruity", "floral", "nutty", "chocolate", "earthy",
	"sweet", "bold", "bright",
}

// KeywordClassifier is the default classifier. It stands in for the trained
// text model behind the same contract: complaint keywords route to the doctor,
// preference language to the sommelier, everything else to the master brewer.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (blackboard.Intent, error) {
	lowered := strings.ToLower(text)

	if HasProblemKeyword(lowered) {
		return blackboard.IntentDoctor, nil
	}
	for _, kw := range preferenceKeywords {
		if strings.Contains(lowered, kw) {
			return blackboard.IntentSommelier, nil
		}
	}
	return blackboard.IntentBrewer, nil
}

// ClassifyProblem maps complaint text to a top-level problem category from the
// rule table. An error means the complaint is too vague to categorize.
func ClassifyProblem(text string) (string, error) {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "sour") || strings.Contains(lowered, "acidic"):
		return "too_sour", nil
	case strings.Contains(lowered, "bitter") || strings.Contains(lowered, "burnt") || strings.Contains(lowered, "harsh"):
		return "too_bitter", nil
	case strings.Contains(lowered, "weak") || strings.Contains(lowered, "watery") || strings.Contains(lowered, "thin") || strings.Contains(lowered, "hollow"):
		return "too_weak", nil
	}
	return "", fmt.Errorf("no problem category matches %q", text)
}
