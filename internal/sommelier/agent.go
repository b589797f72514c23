// Package sommelier implements the recommendation agent. It turns natural
// taste language into signed weights, scores every catalog bean against them,
// and hands the winner to the brewer for a recipe in the same turn.
package sommelier

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/cbr"
	"github.com/dyluth/barista/internal/llm"
	"github.com/dyluth/barista/pkg/blackboard"
)

// topN bounds the scoring trace shown to the user.
const topN = 3

// Agent is the recommendation agent. It is stateless between turns.
type Agent struct {
	bb      *blackboard.Client
	catalog *catalog.Catalog
	llm     llm.Service
}

// NewAgent creates the sommelier agent.
func NewAgent(bb *blackboard.Client, cat *catalog.Catalog, svc llm.Service) *Agent {
	return &Agent{bb: bb, catalog: cat, llm: svc}
}

// Name identifies the agent in coordinator logs.
func (a *Agent) Name() string { return "sommelier" }

type scoredBean struct {
	score float64
	bean  *catalog.Bean
}

// Process scores the catalog against the user's taste preferences. Without
// extractable preferences it asks for a flavour description and waits for the
// next turn. On success it records the winner as context and flips the intent
// to master_brewer so the brewer presents a recipe immediately.
func (a *Agent) Process(ctx context.Context) error {
	intent, err := a.bb.Intent(ctx)
	if err != nil {
		return fmt.Errorf("reading intent: %w", err)
	}
	if intent != blackboard.IntentSommelier {
		return nil
	}

	input, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return fmt.Errorf("reading last user input: %w", err)
	}

	prefs := a.llm.ExtractPreferences(ctx, input)
	if len(prefs) == 0 {
		return a.bb.AppendAssistantMessage(ctx,
			"Could you describe the flavour you want? (For example: \"fruity and sweet, not bitter\".)")
	}
	log.Printf("[Sommelier] extracted preferences: %v", prefs)

	if len(a.catalog.Beans) == 0 {
		return a.bb.AppendAssistantMessage(ctx,
			"My bean knowledge base is unavailable right now, so I can't score a recommendation.")
	}

	scored := make([]scoredBean, len(a.catalog.Beans))
	for i := range a.catalog.Beans {
		bean := &a.catalog.Beans[i]
		scored[i] = scoredBean{
			score: cbr.WeightedTagScore(prefs, bean.ExpertTags),
			bean:  bean,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if err := a.bb.AppendAssistantMessage(ctx, a.scoringTrace(prefs, scored)); err != nil {
		return err
	}

	winner := scored[0].bean
	if err := a.bb.SetContextBean(ctx, winner.ID); err != nil {
		return err
	}

	narrative := a.llm.Generate(ctx,
		fmt.Sprintf("Recommend %s based on the user's preferences %v. Keep it professional.", winner.Name, prefs),
		"Role: Coffee Sommelier.")
	if narrative == llm.DegradedMessage {
		narrative = fmt.Sprintf("%s. %s", winner.Description(), winner.TastingNotes)
	}
	if err := a.bb.AppendAssistantMessage(ctx, "Top recommendation:\n\n"+narrative); err != nil {
		return err
	}

	if err := a.bb.AppendAssistantMessage(ctx, "(Passing context to the master brewer for a recipe...)"); err != nil {
		return err
	}
	return a.bb.SetIntent(ctx, blackboard.IntentBrewer)
}

// scoringTrace renders the top matches with the tags that earned their score,
// so the recommendation is explainable.
func (a *Agent) scoringTrace(prefs map[string]float64, scored []scoredBean) string {
	var b strings.Builder
	b.WriteString("CBR calculation trace:\nUser constraints (weights): ")
	b.WriteString(formatPrefs(prefs))
	b.WriteString("\n\nScoring results:\n")

	limit := topN
	if len(scored) < limit {
		limit = len(scored)
	}
	for _, s := range scored[:limit] {
		fmt.Fprintf(&b, "- %s: %.1f%% match", s.bean.Name, s.score)
		if matches := matchedTags(prefs, s.bean.ExpertTags); len(matches) > 0 {
			fmt.Fprintf(&b, " (matches: %s)", strings.Join(matches, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func matchedTags(prefs map[string]float64, tags []string) []string {
	var matches []string
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		for keyword := range prefs {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				matches = append(matches, tag)
				break
			}
		}
	}
	return matches
}

// formatPrefs renders weights in sorted key order so traces are stable.
func formatPrefs(prefs map[string]float64) string {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.1f", k, prefs[k])
	}
	return strings.Join(parts, ", ")
}
