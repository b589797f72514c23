// Package doctor implements the diagnostic agent. It walks a fixed state
// machine over a queue of candidate causes for the user's taste complaint,
// gathering confirmed and rejected evidence one question per turn, then
// synthesizes a fix from whatever was confirmed.
package doctor

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/cbr"
	"github.com/dyluth/barista/internal/llm"
	"github.com/dyluth/barista/pkg/blackboard"
)

// DefaultBrewMethod is substituted when the user hedges on their method.
const DefaultBrewMethod = "V60 (Assumed)"

// defaultBrewTime is quoted when the reference recipe carries no parseable
// time in its technique notes.
const defaultBrewTime = "2:30 - 3:00"

var brewTimePattern = regexp.MustCompile(`\d+:\d+`)

// Agent is the diagnostic state machine.
type Agent struct {
	bb      *blackboard.Client
	catalog *catalog.Catalog
	llm     llm.Service
}

// NewAgent creates the doctor agent.
func NewAgent(bb *blackboard.Client, cat *catalog.Catalog, svc llm.Service) *Agent {
	return &Agent{bb: bb, catalog: cat, llm: svc}
}

// Name identifies the agent in coordinator logs.
func (a *Agent) Name() string { return "doctor" }

// Process advances the diagnostic state machine. States that do not need a
// fresh user turn fall through within the same call, so a single turn can
// cross several states (for example INIT straight through to the first
// question).
func (a *Agent) Process(ctx context.Context) error {
	intent, err := a.bb.Intent(ctx)
	if err != nil {
		return fmt.Errorf("reading intent: %w", err)
	}
	if intent != blackboard.IntentDoctor {
		return nil
	}

	for {
		state, err := a.bb.DoctorState(ctx)
		if err != nil {
			return fmt.Errorf("reading doctor state: %w", err)
		}
		log.Printf("[Doctor] processing in state %s", state)

		var cont bool
		switch state {
		case blackboard.DoctorInit:
			cont, err = a.stepInit(ctx)
		case blackboard.DoctorAskBean:
			cont, err = a.stepAskBean(ctx)
		case blackboard.DoctorWaitBean:
			cont, err = a.stepWaitBean(ctx)
		case blackboard.DoctorWaitMethod:
			cont, err = a.stepWaitMethod(ctx)
		case blackboard.DoctorDiagnosing:
			cont, err = a.stepDiagnosing(ctx)
		case blackboard.DoctorWaitAnswer:
			cont, err = a.stepWaitAnswer(ctx)
		case blackboard.DoctorSynthesize:
			cont, err = a.stepSynthesize(ctx)
		case blackboard.DoctorDone:
			return nil
		default:
			return fmt.Errorf("unknown doctor state %q", state)
		}
		if err != nil || !cont {
			return err
		}
	}
}

// stepInit seeds the cause queue from the rule table. Without a classified
// problem the agent asks for a better description and stays put.
func (a *Agent) stepInit(ctx context.Context) (bool, error) {
	problem, err := a.bb.EvidenceText(ctx, blackboard.EvidenceInitialProblem)
	if err != nil {
		return false, err
	}
	if problem == "" {
		return false, a.bb.AppendAssistantMessage(ctx,
			"I can tell something is off with your brew, but could you describe the taste in more detail? For example: sour, bitter, or weak.")
	}

	causes, ok := a.catalog.RulesFor(problem)
	if !ok {
		return false, a.bb.AppendAssistantMessage(ctx,
			"I'm sorry, I don't have diagnostic data for that problem yet.")
	}

	items := make([]blackboard.CauseItem, len(causes))
	for i, c := range causes {
		items[i] = blackboard.CauseItem{Key: c.Key, Question: c.Question, Solution: c.Solution}
	}
	if err := a.bb.PushCauses(ctx, items); err != nil {
		return false, err
	}
	if err := a.bb.SetEvidenceText(ctx, blackboard.EvidenceProblemKey, problem); err != nil {
		return false, err
	}
	return true, a.bb.SetDoctorState(ctx, blackboard.DoctorAskBean)
}

func (a *Agent) stepAskBean(ctx context.Context) (bool, error) {
	if err := a.bb.AppendAssistantMessage(ctx,
		"To diagnose this accurately, I need context. Which coffee bean are you using?"); err != nil {
		return false, err
	}
	return false, a.bb.SetDoctorState(ctx, blackboard.DoctorWaitBean)
}

func (a *Agent) stepWaitBean(ctx context.Context) (bool, error) {
	input, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return false, err
	}
	if err := a.bb.SetEvidenceText(ctx, blackboard.EvidenceBeanName, input); err != nil {
		return false, err
	}
	msg := fmt.Sprintf("Okay, %s. What brew method are you using? (If you aren't sure, just say \"I don't know\".)", input)
	if err := a.bb.AppendAssistantMessage(ctx, msg); err != nil {
		return false, err
	}
	return false, a.bb.SetDoctorState(ctx, blackboard.DoctorWaitMethod)
}

// stepWaitMethod records the brew method, substituting the documented default
// when the user hedges, then resolves the reference recipe for later
// questions.
func (a *Agent) stepWaitMethod(ctx context.Context) (bool, error) {
	input, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return false, err
	}

	method := input
	if _, known := catalog.MethodIn(input); !known {
		judgment, _ := a.llm.InterpretCertainty(ctx, input, "User is stating their brew method")
		if judgment == llm.JudgmentUnsure || strings.Contains(strings.ToLower(input), "know") {
			method = DefaultBrewMethod
			if err := a.bb.AppendAssistantMessage(ctx,
				"No problem! Let's assume a standard pour over (like a V60) for now, as that's very common."); err != nil {
				return false, err
			}
		}
	}
	if err := a.bb.SetEvidenceText(ctx, blackboard.EvidenceBrewMethod, method); err != nil {
		return false, err
	}

	beanName, err := a.bb.EvidenceText(ctx, blackboard.EvidenceBeanName)
	if err != nil {
		return false, err
	}
	if err := a.resolveReference(ctx, beanName, method); err != nil {
		return false, err
	}
	return true, a.bb.SetDoctorState(ctx, blackboard.DoctorDiagnosing)
}

// resolveReference pins the context bean and recipe when the user's answers
// match the catalog. Unknown beans or methods simply leave the questions
// unparameterized.
func (a *Agent) resolveReference(ctx context.Context, beanText, methodText string) error {
	bean, ok := a.catalog.FindBeanIn(beanText)
	if !ok {
		log.Printf("[Doctor] no catalog bean matches %q, diagnosing without a reference recipe", beanText)
		return nil
	}
	if err := a.bb.SetContextBean(ctx, bean.ID); err != nil {
		return err
	}

	recipe, ok := a.catalog.FindRecipe(bean.ID, methodText)
	if !ok {
		log.Printf("[Doctor] no recipe for bean %s and method %q", bean.ID, methodText)
		return nil
	}
	return a.bb.SetContextRecipe(ctx, recipe.ID)
}

// stepDiagnosing pops the next cause and asks its question. An empty queue
// means every candidate has been checked, so synthesis starts.
func (a *Agent) stepDiagnosing(ctx context.Context) (bool, error) {
	if err := a.bb.ClearCurrentCause(ctx); err != nil {
		return false, err
	}

	cause, ok, err := a.bb.PopCause(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, a.bb.SetDoctorState(ctx, blackboard.DoctorSynthesize)
	}

	if err := a.bb.AppendAssistantMessage(ctx, a.renderQuestion(ctx, cause)); err != nil {
		return false, err
	}
	return false, a.bb.SetDoctorState(ctx, blackboard.DoctorWaitAnswer)
}

// renderQuestion parameterizes the cause question with the reference recipe
// when one was resolved; otherwise the rule table's generic wording stands.
func (a *Agent) renderQuestion(ctx context.Context, cause blackboard.CauseItem) string {
	recipe := a.contextRecipe(ctx)
	if recipe == nil {
		return cause.Question
	}

	switch {
	case cause.Key == "grind_coarse":
		return fmt.Sprintf("For this bean, the ideal grind is %s. Does your grind look significantly coarser or chunkier than that?", recipe.GrindSize)
	case cause.Key == "grind_fine":
		return fmt.Sprintf("For this bean, the ideal grind is %s. Does your grind look significantly finer or more powdery than that?", recipe.GrindSize)
	case strings.Contains(cause.Key, "brew_time"):
		target := defaultBrewTime
		if match := brewTimePattern.FindString(recipe.TechniqueNotes); match != "" {
			target = match
		}
		if strings.Contains(cause.Key, "short") {
			return fmt.Sprintf("The target brew time should be around %s. Did your water drain much faster than that?", target)
		}
		return fmt.Sprintf("The target brew time should be around %s. Did your brew take much longer than that?", target)
	case strings.Contains(cause.Key, "water_temp"):
		if strings.Contains(cause.Key, "low") {
			return fmt.Sprintf("The recommended temperature is %.0fC. Do you think your water might have been too cool, for example after waiting too long off the boil?", recipe.WaterTempC)
		}
		return fmt.Sprintf("The recommended temperature is %.0fC. Did you use boiling water straight away?", recipe.WaterTempC)
	}
	return cause.Question
}

func (a *Agent) contextRecipe(ctx context.Context) *catalog.Recipe {
	id, err := a.bb.ContextRecipeID(ctx)
	if err != nil || id == "" {
		return nil
	}
	recipe, ok := a.catalog.RecipeByID(id)
	if !ok {
		return nil
	}
	return recipe
}

// stepWaitAnswer interprets the user's answer to the current cause question
// and records it as confirmed or rejected evidence. Temperature causes try a
// numeric fuzzy check before falling back to linguistic interpretation.
func (a *Agent) stepWaitAnswer(ctx context.Context) (bool, error) {
	cause, ok, err := a.bb.CurrentCause(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		// Nothing pending; resume the queue.
		return true, a.bb.SetDoctorState(ctx, blackboard.DoctorDiagnosing)
	}

	input, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return false, err
	}

	judgment, cf, handled, err := a.fuzzyTemperatureCheck(ctx, cause, input)
	if err != nil {
		return false, err
	}
	if !handled {
		judgment, cf = a.llm.InterpretCertainty(ctx, input, cause.Question)
	}
	log.Printf("[Doctor] answer to %s interpreted as %s (cf=%.2f)", cause.Key, judgment, cf)

	if judgment == llm.JudgmentYes && cf > 0.5 {
		if err := a.bb.UpsertEvidence(ctx, blackboard.ConfirmedPrefix+cause.Key, cf); err != nil {
			return false, err
		}
	} else {
		if err := a.bb.UpsertEvidence(ctx, blackboard.RejectedPrefix+cause.Key, 1.0); err != nil {
			return false, err
		}
	}
	return true, a.bb.SetDoctorState(ctx, blackboard.DoctorDiagnosing)
}

// fuzzyTemperatureCheck resolves water-temperature causes numerically when
// the answer contains a temperature. The membership trace is shown to the
// user so the verdict is explainable. handled is false when the cause is not
// about temperature or no number could be extracted.
func (a *Agent) fuzzyTemperatureCheck(ctx context.Context, cause blackboard.CauseItem, input string) (llm.Judgment, float64, bool, error) {
	if !strings.Contains(cause.Key, "water_temp") {
		return llm.JudgmentUnsure, 0, false, nil
	}
	temp, ok := a.llm.ExtractNumber(ctx, input, "temperature")
	if !ok {
		return llm.JudgmentUnsure, 0, false, nil
	}

	m := cbr.FuzzyTemperature(temp)
	trace := fmt.Sprintf("Fuzzy analysis for %.0fC:\n- low/cold membership: %.2f\n- ideal membership: %.2f\n- high/hot membership: %.2f",
		temp, m.Low, m.Ideal, m.High)
	if err := a.bb.AppendAssistantMessage(ctx, trace); err != nil {
		return llm.JudgmentUnsure, 0, false, err
	}

	relevant := m.High
	if strings.Contains(cause.Key, "low") {
		relevant = m.Low
	}
	if relevant > 0.5 {
		return llm.JudgmentYes, relevant, true, nil
	}
	return llm.JudgmentNo, 1.0, true, nil
}

// stepSynthesize turns the confirmed evidence into a verdict. Confirmed
// causes are reported in rule-table order so the output is stable.
func (a *Agent) stepSynthesize(ctx context.Context) (bool, error) {
	evidence, err := a.bb.Evidence(ctx)
	if err != nil {
		return false, err
	}
	problemKey, err := a.bb.EvidenceText(ctx, blackboard.EvidenceProblemKey)
	if err != nil {
		return false, err
	}

	var confirmed []catalog.Cause
	if causes, ok := a.catalog.RulesFor(problemKey); ok {
		for _, c := range causes {
			if _, found := evidence[blackboard.ConfirmedPrefix+c.Key]; found {
				confirmed = append(confirmed, c)
			}
		}
	}

	var msg string
	switch len(confirmed) {
	case 0:
		msg = "Diagnosis complete. I've checked the most common factors, but none were confirmed. This suggests the issue might be the coffee bean itself (stale or a roast defect) rather than your technique."
	case 1:
		msg = a.synthesizeSingle(ctx, confirmed[0])
	default:
		msg = a.synthesizeMulti(ctx, confirmed)
	}
	if err := a.bb.AppendAssistantMessage(ctx, msg); err != nil {
		return false, err
	}
	return false, a.bb.SetDoctorState(ctx, blackboard.DoctorDone)
}

func (a *Agent) synthesizeSingle(ctx context.Context, cause catalog.Cause) string {
	roleContext := "Role: Technical Coffee Technician. Tone: Direct, Concise."
	if recipe := a.contextRecipe(ctx); recipe != nil {
		roleContext += fmt.Sprintf(" Reference Recipe: Grind %s, Temp %.0fC.", recipe.GrindSize, recipe.WaterTempC)
	}

	prompt := fmt.Sprintf(`SINGLE ROOT CAUSE FOUND: %s.
STANDARD FIX: %q

TASK: Provide specific instructions to fix this. Bullet points. Under 50 words.`, cause.Key, cause.Solution)

	body := a.llm.Generate(ctx, prompt, roleContext)
	if body == llm.DegradedMessage {
		body = cause.Solution
	}
	return fmt.Sprintf("DIAGNOSIS COMPLETE\n\nIdentified issue: %s\n\n%s", titleCause(cause.Key), body)
}

func (a *Agent) synthesizeMulti(ctx context.Context, confirmed []catalog.Cause) string {
	keys := make([]string, len(confirmed))
	var solutions strings.Builder
	for i, c := range confirmed {
		keys[i] = c.Key
		fmt.Fprintf(&solutions, "- %s: %s\n", c.Key, c.Solution)
	}

	prompt := fmt.Sprintf(`COMPLEX DIAGNOSIS. Multiple issues detected: %s.

Reference Solutions:
%s
TASK: Create a prioritized recovery plan.
1. List the detected issues.
2. Identify which ONE to fix FIRST (the most critical one).
3. Provide concise actions. No fluff.`, strings.Join(keys, ", "), solutions.String())

	body := a.llm.Generate(ctx, prompt, "Role: Senior Head Barista. Tone: Analytical & Directive.")
	if body == llm.DegradedMessage {
		body = "Work through these in order:\n" + solutions.String()
	}
	return "COMPLEX DIAGNOSIS: MULTIPLE FACTORS DETECTED\n\n" + body
}

// titleCause turns a cause key like "water_temp_low" into display form.
func titleCause(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
