// Package brewer implements the recipe agent. Known beans resolve to stored
// expert recipes; unknown beans fall back to case-based reasoning over the
// catalog to adapt the nearest neighbour's recipe.
package brewer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/cbr"
	"github.com/dyluth/barista/internal/llm"
	"github.com/dyluth/barista/pkg/blackboard"
)

// cbrWeights fixes the feature weights for the nearest-neighbour search.
// Roast level dominates because it drives extraction behaviour more than
// origin or processing.
var cbrWeights = map[string]float64{
	"origin":      0.3,
	"roast_level": 0.4,
	"processing":  0.3,
}

// autoSelectPriority orders methods for the "just recommend one" fallback.
var autoSelectPriority = []string{"v60", "french press", "aeropress", "chemex"}

// Agent is the recipe state machine.
type Agent struct {
	bb      *blackboard.Client
	catalog *catalog.Catalog
	llm     llm.Service
}

// NewAgent creates the brewer agent.
func NewAgent(bb *blackboard.Client, cat *catalog.Catalog, svc llm.Service) *Agent {
	return &Agent{bb: bb, catalog: cat, llm: svc}
}

// Name identifies the agent in coordinator logs.
func (a *Agent) Name() string { return "brewer" }

// Process advances the recipe state machine. In INIT the agent only acts when
// the master-brewer intent is set; in any waiting state it keeps the
// conversation regardless of intent, since it asked the pending question.
func (a *Agent) Process(ctx context.Context) error {
	state, err := a.bb.BrewerState(ctx)
	if err != nil {
		return fmt.Errorf("reading brewer state: %w", err)
	}
	if state == blackboard.BrewerInit {
		intent, err := a.bb.Intent(ctx)
		if err != nil {
			return fmt.Errorf("reading intent: %w", err)
		}
		if intent != blackboard.IntentBrewer {
			return nil
		}
	}

	input, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return fmt.Errorf("reading last user input: %w", err)
	}
	input = strings.ToLower(input)
	log.Printf("[Brewer] processing in state %s", state)

	switch state {
	case blackboard.BrewerInit:
		return a.stepInit(ctx, input)
	case blackboard.BrewerWaitMethodSelection:
		return a.stepMethodSelection(ctx, input)
	case blackboard.BrewerGatherAttrs:
		return a.stepCBR(ctx, input)
	default:
		return fmt.Errorf("unknown brewer state %q", state)
	}
}

// stepInit identifies the target bean from the input or the conversation
// context and either presents a recipe, offers a choice, or drops into CBR
// mode for unknown beans.
func (a *Agent) stepInit(ctx context.Context, input string) error {
	bean, found := a.catalog.FindBeanIn(input)
	if !found {
		bean, found = a.contextBean(ctx)
	}

	if !found {
		if err := a.bb.AppendAssistantMessage(ctx,
			"Unknown coffee bean detected. Initializing case-based reasoning protocol.\n\nTo generate an adapted recipe, I need attributes: what is the roast level (light/medium/dark) and process (washed/natural)?"); err != nil {
			return err
		}
		return a.bb.SetBrewerState(ctx, blackboard.BrewerGatherAttrs)
	}

	if err := a.bb.SetContextBean(ctx, bean.ID); err != nil {
		return err
	}

	recipes := a.catalog.RecipesForBean(bean.ID)
	if len(recipes) == 0 {
		return a.bb.AppendAssistantMessage(ctx,
			fmt.Sprintf("Database confirmed: I know %s, but I have no recipes recorded for it yet.", bean.Name))
	}

	if method, ok := catalog.MethodIn(input); ok {
		if recipe := recipeForMethod(recipes, method); recipe != nil {
			return a.present(ctx, recipe, bean)
		}
		msg := fmt.Sprintf("%s found, but I have no %s recipe for it.\nAvailable recipes: %s. Pick one?",
			bean.Name, method, methodList(recipes))
		if err := a.bb.AppendAssistantMessage(ctx, msg); err != nil {
			return err
		}
		return a.bb.SetBrewerState(ctx, blackboard.BrewerWaitMethodSelection)
	}

	if len(recipes) == 1 {
		if err := a.bb.AppendAssistantMessage(ctx,
			fmt.Sprintf("Found %s. Only one expert recipe available. Here it is:", bean.Name)); err != nil {
			return err
		}
		return a.present(ctx, &recipes[0], bean)
	}

	msg := fmt.Sprintf("%s identified. I have recipes for: %s.\n\nWhich one do you want? (Or say \"recommend\" if unsure.)",
		bean.Name, methodList(recipes))
	if err := a.bb.AppendAssistantMessage(ctx, msg); err != nil {
		return err
	}
	return a.bb.SetBrewerState(ctx, blackboard.BrewerWaitMethodSelection)
}

// stepMethodSelection resolves the user's pick from the offered methods, or
// auto-selects when they hedge.
func (a *Agent) stepMethodSelection(ctx context.Context, input string) error {
	bean, found := a.contextBean(ctx)
	if !found {
		// Context lost; start over on the next master-brewer turn.
		return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
	}
	recipes := a.catalog.RecipesForBean(bean.ID)

	if method, ok := catalog.MethodIn(input); ok {
		if recipe := recipeForMethod(recipes, method); recipe != nil {
			if err := a.present(ctx, recipe, bean); err != nil {
				return err
			}
			return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
		}
	}

	if strings.Contains(input, "know") || strings.Contains(input, "recommend") || strings.Contains(input, "sure") {
		recipe := autoSelect(recipes)
		if err := a.bb.AppendAssistantMessage(ctx,
			fmt.Sprintf("Auto-selection: %s (best match for this bean).", recipe.BrewMethod)); err != nil {
			return err
		}
		if err := a.present(ctx, recipe, bean); err != nil {
			return err
		}
		return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
	}

	return a.bb.AppendAssistantMessage(ctx,
		"Invalid selection. Please choose from the available list or ask for a recommendation.")
}

// stepCBR adapts a recipe for an unknown bean: parse the described
// attributes, find the nearest catalog bean, and reuse its first recipe.
func (a *Agent) stepCBR(ctx context.Context, input string) error {
	roast := 3.0
	if strings.Contains(input, "light") {
		roast = 1.0
	}
	if strings.Contains(input, "dark") {
		roast = 5.0
	}

	process := "Washed"
	switch {
	case strings.Contains(input, "natural"):
		process = "Natural"
	case strings.Contains(input, "honey"):
		process = "Honey"
	case strings.Contains(input, "wet"):
		process = "Wet-Hulled"
	}

	query := cbr.Features{
		"origin":      cbr.Categorical("Unknown"),
		"roast_level": cbr.Numeric(roast),
		"processing":  cbr.Categorical(process),
	}
	candidates := make([]cbr.Features, len(a.catalog.Beans))
	for i := range a.catalog.Beans {
		candidates[i] = a.catalog.Beans[i].Features()
	}

	idx, score := cbr.NearestNeighbor(query, candidates, cbrWeights)
	if idx < 0 {
		if err := a.bb.AppendAssistantMessage(ctx,
			"Database insufficient. No similar beans found for analogy."); err != nil {
			return err
		}
		return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
	}

	similar := &a.catalog.Beans[idx]
	proxyRecipes := a.catalog.RecipesForBean(similar.ID)
	if len(proxyRecipes) == 0 {
		if err := a.bb.AppendAssistantMessage(ctx,
			"Found a similar bean profile, but it has no recipes stored."); err != nil {
			return err
		}
		return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
	}

	trace := fmt.Sprintf("CBR analysis result:\n- input profile: roast level %.0f, %s\n- nearest neighbour: %s (similarity %d%%)\n- adaptation: using the %s recipe as reference",
		roast, process, similar.Name, int(score*100), similar.Name)
	if err := a.bb.AppendAssistantMessage(ctx, trace); err != nil {
		return err
	}
	if err := a.present(ctx, &proxyRecipes[0], similar); err != nil {
		return err
	}
	return a.bb.SetBrewerState(ctx, blackboard.BrewerInit)
}

// present pins the recipe and bean as conversation context, then renders the
// recipe as a strict SOP. The generation prompt forbids filler and invented
// values; in degraded mode the raw parameters are shown as-is.
func (a *Agent) present(ctx context.Context, recipe *catalog.Recipe, bean *catalog.Bean) error {
	if err := a.bb.SetContextBean(ctx, bean.ID); err != nil {
		return err
	}
	if err := a.bb.SetContextRecipe(ctx, recipe.ID); err != nil {
		return err
	}

	coreData := fmt.Sprintf(
		"TARGET BEAN: %s\nMETHOD: %s\nRATIO: %.0fg coffee to %.0fml water\nTEMP: %.0fC\nGRIND: %s\nTECHNIQUE: %s",
		bean.Name, recipe.BrewMethod, recipe.CoffeeGrams, recipe.WaterGrams, recipe.WaterTempC,
		recipe.GrindSize, recipe.TechniqueNotes)

	prompt := fmt.Sprintf(`TASK: Convert the RAW DATA below into a Technical Brewing Standard Operating Procedure (SOP).

CONSTRAINTS:
1. NO conversational filler (e.g., "Here is your recipe", "Enjoy").
2. NO introductory or concluding paragraphs. Start directly with the parameters.
3. Use bullet points for parameters.
4. Steps must be numbered, imperative, and extremely concise (under 10 words per step if possible).
5. DO NOT invent information not present in the RAW DATA.

RAW DATA:
%s`, coreData)

	response := a.llm.Generate(ctx, prompt, "You are a Technical Manual Generator.")
	if response == llm.DegradedMessage {
		response = coreData
	}
	return a.bb.AppendAssistantMessage(ctx, response)
}

func (a *Agent) contextBean(ctx context.Context) (*catalog.Bean, bool) {
	id, err := a.bb.ContextBeanID(ctx)
	if err != nil || id == "" {
		return nil, false
	}
	return a.catalog.BeanByID(id)
}

func recipeForMethod(recipes []catalog.Recipe, method string) *catalog.Recipe {
	for i := range recipes {
		if strings.EqualFold(recipes[i].BrewMethod, method) {
			return &recipes[i]
		}
	}
	return nil
}

func autoSelect(recipes []catalog.Recipe) *catalog.Recipe {
	for _, method := range autoSelectPriority {
		if r := recipeForMethod(recipes, method); r != nil {
			return r
		}
	}
	return &recipes[0]
}

func methodList(recipes []catalog.Recipe) string {
	methods := make([]string, len(recipes))
	for i, r := range recipes {
		methods[i] = r.BrewMethod
	}
	return strings.Join(methods, ", ")
}
