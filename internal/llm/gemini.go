package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when the config names none.
const DefaultModel = "gemini-2.5-flash"

// GeminiService backs the collaborator contract with the Gemini API. All
// failures degrade per the Service contract and are logged, never returned.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a Gemini-backed collaborator.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	log.Printf("[LLM] gemini collaborator ready (model %s)", model)
	return &GeminiService{client: client, model: model}, nil
}

// Generate implements Service.
func (s *GeminiService) Generate(ctx context.Context, prompt, roleContext string) string {
	full := prompt
	if roleContext != "" {
		full = roleContext + "\n\n" + prompt
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(full), nil)
	if err != nil {
		log.Printf("[LLM] generate failed: %v", err)
		return DegradedMessage
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.Printf("[LLM] generate returned empty response")
		return DegradedMessage
	}
	return text
}

// InterpretCertainty implements Service. The model only picks a linguistic
// category; the certainty factor comes from the fixed mapping.
func (s *GeminiService) InterpretCertainty(ctx context.Context, text, questionContext string) (Judgment, float64) {
	prompt := fmt.Sprintf(`Task: Analyze the user's response to a diagnostic question.
Question Context: %q
User Response: %q

Instruction:
Classify the user's response ONLY into one of the following categories:

1. STRONG_YES  (Examples: "Yes definitely", "Exactly", "Very much so", "Correct")
2. MILD_YES    (Examples: "I think so", "Maybe", "A little bit", "Looks like it")
3. UNSURE      (Examples: "I don't know", "I'm confused", "Not sure", "Hard to tell")
4. MILD_NO     (Examples: "I don't think so", "Probably not", "Doubt it")
5. STRONG_NO   (Examples: "No", "Absolutely not", "Definitely not", "Wrong")

Output ONLY one category word from the list above. Do not include any other text.`,
		questionContext, text)

	raw := s.Generate(ctx, prompt, "")
	if raw == DegradedMessage {
		return JudgmentUnsure, 0.0
	}

	category := strings.ToUpper(strings.TrimSpace(raw))
	category = strings.NewReplacer(".", "", "'", "", `"`, "").Replace(category)

	judgment, cf := MapCertainty(category)
	log.Printf("[LLM] certainty %q -> %s -> %s/%.1f", text, category, judgment, cf)
	return judgment, cf
}

// ExtractPreferences implements Service.
func (s *GeminiService) ExtractPreferences(ctx context.Context, text string) map[string]float64 {
	prompt := fmt.Sprintf(`Task: Extract taste preferences and assign a weight (-1.0 to 1.0).
Input: %q

Rules:
- Strong desire ("love", "really want", "must") = 1.0
- Moderate desire ("maybe", "a bit", "hints of") = 0.5
- Neutral/Mentioned = 0.3
- Avoid/Dislike ("no", "hate", "not") = -1.0

Output format: JSON Dictionary ONLY. Keys must be single adjectives (lower case).
Example: {"fruity": 1.0, "nutty": 0.5, "bitter": -1.0}`, text)

	raw := s.Generate(ctx, prompt, "")
	if raw == DegradedMessage {
		return map[string]float64{}
	}

	raw = strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(raw))

	var prefs map[string]float64
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		log.Printf("[LLM] preference extraction returned unparsable JSON: %v", err)
		return map[string]float64{}
	}
	return prefs
}

// ExtractNumber implements Service.
func (s *GeminiService) ExtractNumber(ctx context.Context, text, parameter string) (float64, bool) {
	prompt := fmt.Sprintf(`Task: Extract the numerical value for '%s' from the text.
Input: %q
Output: ONLY the number (int or float). If no number found, output 'None'.`, parameter, text)

	raw := strings.TrimSpace(s.Generate(ctx, prompt, ""))
	if raw == DegradedMessage || strings.EqualFold(raw, "none") {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[LLM] number extraction returned non-numeric %q", raw)
		return 0, false
	}
	return value, true
}
