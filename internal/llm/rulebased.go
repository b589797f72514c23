package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// RuleBasedService is the offline collaborator. It covers the same contract
// with keyword heuristics so the assistant stays usable without an API key,
// at the cost of less forgiving phrasing.
type RuleBasedService struct{}

// NewRuleBasedService creates the offline collaborator.
func NewRuleBasedService() *RuleBasedService {
	return &RuleBasedService{}
}

// Generate implements Service. The offline collaborator cannot phrase free
// text, so it always reports degraded mode and callers fall back to their
// template output.
func (s *RuleBasedService) Generate(ctx context.Context, prompt, roleContext string) string {
	return DegradedMessage
}

// InterpretCertainty implements Service with keyword matching. Unsure
// phrasing is checked before negations so "not sure" does not read as a no.
func (s *RuleBasedService) InterpretCertainty(ctx context.Context, text, questionContext string) (Judgment, float64) {
	lowered := strings.ToLower(text)

	contains := func(phrases ...string) bool {
		for _, p := range phrases {
			if strings.Contains(lowered, p) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("not sure", "don't know", "dont know", "no idea", "unsure", "hard to tell", "confused"):
		return MapCertainty(CategoryUnsure)
	case contains("definitely not", "absolutely not", "no way", "nope"):
		return MapCertainty(CategoryStrongNo)
	case contains("don't think", "dont think", "probably not", "doubt"):
		return MapCertainty(CategoryMildNo)
	case contains("definitely", "exactly", "absolutely", "for sure", "correct"):
		return MapCertainty(CategoryStrongYes)
	case contains("think so", "maybe", "probably", "a little", "a bit", "looks like", "i guess"):
		return MapCertainty(CategoryMildYes)
	case hasWord(lowered, "no"):
		return MapCertainty(CategoryStrongNo)
	case hasWord(lowered, "yes") || hasWord(lowered, "yeah") || hasWord(lowered, "yep"):
		return MapCertainty(CategoryStrongYes)
	}
	return MapCertainty(CategoryUnsure)
}

// tasteVocabulary is the closed adjective set the offline extractor can
// recognize in preference text.
var tasteVocabulary = []string{
	"fruity", "floral", "bright", "juicy", "winey", "citrus",
	"sweet", "caramel", "honey", "balanced", "clean", "silky",
	"nutty", "chocolate", "heavy", "earthy", "bold", "syrupy",
	"bitter", "sour", "acidic",
}

// negationWords flip a following adjective into an avoidance.
var negationWords = map[string]bool{
	"no": true, "not": true, "without": true, "hate": true,
	"avoid": true, "dislike": true, "don't": true, "dont": true,
	"nothing": true, "never": true,
}

// ExtractPreferences implements Service. An adjective preceded by a negation
// word within the previous three tokens counts as avoided.
func (s *RuleBasedService) ExtractPreferences(ctx context.Context, text string) map[string]float64 {
	tokens := strings.Fields(strings.ToLower(text))
	prefs := map[string]float64{}

	for i, token := range tokens {
		token = strings.Trim(token, ".,!?;:")
		for _, adjective := range tasteVocabulary {
			if !strings.Contains(token, adjective) {
				continue
			}
			weight := 1.0
			for back := i - 1; back >= 0 && back >= i-3; back-- {
				if negationWords[strings.Trim(tokens[back], ".,!?;:")] {
					weight = -1.0
					break
				}
			}
			prefs[adjective] = weight
		}
	}
	return prefs
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ExtractNumber implements Service by taking the first number in the text.
func (s *RuleBasedService) ExtractNumber(ctx context.Context, text, parameter string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func hasWord(text, word string) bool {
	for _, token := range strings.Fields(text) {
		if strings.Trim(token, ".,!?;:") == word {
			return true
		}
	}
	return false
}
