package intent

import (
	"context"
	"fmt"
	"log"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/pkg/blackboard"
)

// Agent performs hybrid intent detection on the latest user turn. The turn
// coordinator only invokes it when no other agent holds the conversation.
type Agent struct {
	bb         *blackboard.Client
	catalog    *catalog.Catalog
	classifier Classifier
}

// NewAgent creates the intent agent.
func NewAgent(bb *blackboard.Client, cat *catalog.Catalog, classifier Classifier) *Agent {
	return &Agent{bb: bb, catalog: cat, classifier: classifier}
}

// Name identifies the agent in coordinator logs.
func (a *Agent) Name() string { return "intent" }

// Process classifies the last user input and records the routing decision.
//
// A mentioned catalog bean with no complaint keyword routes straight to the
// master brewer without consulting the classifier: the user almost certainly
// wants a recipe. A classifier failure skips routing for the turn, leaving
// the previous intent in place.
func (a *Agent) Process(ctx context.Context) error {
	text, err := a.bb.LastUserInput(ctx)
	if err != nil {
		return fmt.Errorf("reading last user input: %w", err)
	}
	if text == "" {
		return nil
	}

	if bean, ok := a.catalog.FindBeanIn(text); ok && !HasProblemKeyword(text) {
		log.Printf("[Intent] bean %q mentioned, routing to master brewer", bean.Name)
		return a.bb.SetIntent(ctx, blackboard.IntentBrewer)
	}

	label, err := a.classifier.Classify(ctx, text)
	if err != nil {
		log.Printf("[Intent] classifier unavailable, keeping current intent: %v", err)
		return nil
	}
	log.Printf("[Intent] classified as %s", label)

	if err := a.bb.SetIntent(ctx, label); err != nil {
		return fmt.Errorf("setting intent: %w", err)
	}

	if label != blackboard.IntentDoctor {
		return nil
	}

	problem, err := ClassifyProblem(text)
	if err != nil {
		// Too vague to categorize. The doctor will ask for specifics.
		log.Printf("[Intent] %v", err)
		return nil
	}
	if err := a.bb.SetEvidenceText(ctx, blackboard.EvidenceInitialProblem, problem); err != nil {
		return fmt.Errorf("recording problem classification: %w", err)
	}
	if err := a.bb.UpsertEvidence(ctx, "problem_"+problem, 1.0); err != nil {
		return fmt.Errorf("recording problem confidence: %w", err)
	}
	return nil
}
