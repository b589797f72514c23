package brewer

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/llm"
	"github.com/dyluth/barista/pkg/blackboard"
)

func setupTestClient(t *testing.T) *blackboard.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	bb, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-session")
	require.NoError(t, err)
	t.Cleanup(func() { bb.Close() })
	return bb
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Beans: []catalog.Bean{
			{ID: "bean-001", Name: "Ethiopia Yirgacheffe", Origin: "Ethiopia", RoastLevel: 1, Processing: "Washed"},
			{ID: "bean-003", Name: "Colombia Huila", Origin: "Colombia", RoastLevel: 3, Processing: "Washed"},
			{ID: "bean-005", Name: "Sumatra Mandheling", Origin: "Indonesia", RoastLevel: 5, Processing: "Wet-Hulled"},
			{ID: "bean-006", Name: "Costa Rica Tarrazu", Origin: "Costa Rica", RoastLevel: 2, Processing: "Honey"},
		},
		Recipes: []catalog.Recipe{
			{ID: "recipe-001", BeanID: "bean-001", BrewMethod: "V60", GrindSize: "Medium-Fine", CoffeeGrams: 15, WaterGrams: 250, WaterTempC: 93, TechniqueNotes: "Bloom 30s, total 2:30."},
			{ID: "recipe-002", BeanID: "bean-001", BrewMethod: "Aeropress", GrindSize: "Fine", CoffeeGrams: 14, WaterGrams: 220, WaterTempC: 90, TechniqueNotes: "Inverted, steep 1:30."},
			{ID: "recipe-006", BeanID: "bean-003", BrewMethod: "French Press", GrindSize: "Coarse", CoffeeGrams: 30, WaterGrams: 450, WaterTempC: 93, TechniqueNotes: "Steep 4:00."},
			{ID: "recipe-008", BeanID: "bean-005", BrewMethod: "French Press", GrindSize: "Extra Coarse", CoffeeGrams: 30, WaterGrams: 420, WaterTempC: 91, TechniqueNotes: "Steep 5:00."},
		},
	}
}

func setupAgent(t *testing.T) (*blackboard.Client, *Agent) {
	t.Helper()
	bb := setupTestClient(t)
	require.NoError(t, bb.SetIntent(context.Background(), blackboard.IntentBrewer))
	return bb, NewAgent(bb, testCatalog(), llm.NewRuleBasedService())
}

func turn(t *testing.T, bb *blackboard.Client, agent *Agent, text string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, bb.AppendUserMessage(ctx, text))
	require.NoError(t, agent.Process(ctx))
}

func lastMessage(t *testing.T, bb *blackboard.Client) string {
	t.Helper()
	msg, ok, err := bb.LastMessage(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	return msg.Content
}

func brewerState(t *testing.T, bb *blackboard.Client) blackboard.BrewerState {
	t.Helper()
	state, err := bb.BrewerState(context.Background())
	require.NoError(t, err)
	return state
}

func TestKnownBeanWithExplicitMethod(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	turn(t, bb, agent, "v60 recipe for Ethiopia Yirgacheffe please")

	// Degraded generation falls back to the raw recipe parameters.
	final := lastMessage(t, bb)
	assert.Contains(t, final, "TARGET BEAN: Ethiopia Yirgacheffe")
	assert.Contains(t, final, "METHOD: V60")
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))

	recipeID, err := bb.ContextRecipeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "recipe-001", recipeID)
}

func TestKnownBeanWithoutMethodOffersChoice(t *testing.T) {
	bb, agent := setupAgent(t)

	turn(t, bb, agent, "I have some Ethiopia Yirgacheffe")

	msg := lastMessage(t, bb)
	assert.Contains(t, msg, "V60")
	assert.Contains(t, msg, "Aeropress")
	assert.Equal(t, blackboard.BrewerWaitMethodSelection, brewerState(t, bb))
}

func TestMethodSelection(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	turn(t, bb, agent, "I have some Ethiopia Yirgacheffe")
	turn(t, bb, agent, "aeropress sounds good")

	assert.Contains(t, lastMessage(t, bb), "METHOD: Aeropress")
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))

	recipeID, err := bb.ContextRecipeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "recipe-002", recipeID)
}

func TestMethodSelectionHedgeAutoSelects(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	turn(t, bb, agent, "I have some Ethiopia Yirgacheffe")
	turn(t, bb, agent, "I don't know, just recommend one")

	transcript, err := bb.Transcript(ctx)
	require.NoError(t, err)
	var sawAuto bool
	for _, m := range transcript {
		if m.Role == blackboard.RoleAssistant && strings.Contains(m.Content, "Auto-selection: V60") {
			sawAuto = true
		}
	}
	assert.True(t, sawAuto, "auto-selection notice missing from transcript")

	// V60 leads the auto-select priority for this bean.
	recipeID, err := bb.ContextRecipeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "recipe-001", recipeID)
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))
}

func TestMethodSelectionInvalidChoice(t *testing.T) {
	bb, agent := setupAgent(t)

	turn(t, bb, agent, "I have some Ethiopia Yirgacheffe")
	turn(t, bb, agent, "moka pot")

	assert.Contains(t, lastMessage(t, bb), "Invalid selection")
	assert.Equal(t, blackboard.BrewerWaitMethodSelection, brewerState(t, bb))
}

func TestWaitingStateRunsDespiteIntent(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	turn(t, bb, agent, "I have some Ethiopia Yirgacheffe")

	// An intent change cascades a brewer reset; restore the waiting state to
	// model the coordinator's lock, where a busy brewer keeps the turn even
	// though another intent is set.
	require.NoError(t, bb.SetIntent(ctx, blackboard.IntentDoctor))
	require.NoError(t, bb.SetAgentState(ctx, blackboard.AgentBrewer, string(blackboard.BrewerWaitMethodSelection)))

	turn(t, bb, agent, "v60")
	assert.Contains(t, lastMessage(t, bb), "METHOD: V60")
}

func TestSingleRecipePresentedDirectly(t *testing.T) {
	bb, agent := setupAgent(t)

	turn(t, bb, agent, "got a bag of Colombia Huila")

	assert.Contains(t, lastMessage(t, bb), "METHOD: French Press")
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))
}

func TestBeanWithoutRecipes(t *testing.T) {
	bb, agent := setupAgent(t)

	turn(t, bb, agent, "how should I brew Costa Rica Tarrazu")

	assert.Contains(t, lastMessage(t, bb), "no recipes recorded")
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))
}

func TestUnknownBeanEntersCBRMode(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	turn(t, bb, agent, "I bought a mystery bean from the market")
	assert.Contains(t, lastMessage(t, bb), "case-based reasoning")
	assert.Equal(t, blackboard.BrewerGatherAttrs, brewerState(t, bb))

	turn(t, bb, agent, "it's a dark roast, wet hulled")

	transcript, err := bb.Transcript(ctx)
	require.NoError(t, err)
	joined := ""
	for _, m := range transcript {
		if m.Role == blackboard.RoleAssistant {
			joined += m.Content + "\n"
		}
	}
	// Roast 5 + Wet-Hulled lands on Sumatra Mandheling.
	assert.Contains(t, joined, "Sumatra Mandheling")
	assert.Contains(t, joined, "similarity")
	assert.Contains(t, joined, "METHOD: French Press")
	assert.Equal(t, blackboard.BrewerInit, brewerState(t, bb))

	beanID, err := bb.ContextBeanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bean-005", beanID)
}

func TestContextBeanFromEarlierTurn(t *testing.T) {
	bb, agent := setupAgent(t)
	ctx := context.Background()

	// The sommelier leaves a context bean behind before handing off.
	require.NoError(t, bb.SetContextBean(ctx, "bean-003"))
	turn(t, bb, agent, "sounds great, give me the recipe")

	assert.Contains(t, lastMessage(t, bb), "TARGET BEAN: Colombia Huila")
}

func TestIgnoresOtherIntentsInInit(t *testing.T) {
	bb := setupTestClient(t)
	ctx := context.Background()
	require.NoError(t, bb.SetIntent(ctx, blackboard.IntentDoctor))

	agent := NewAgent(bb, testCatalog(), llm.NewRuleBasedService())
	require.NoError(t, bb.AppendUserMessage(ctx, "Ethiopia Yirgacheffe"))
	require.NoError(t, agent.Process(ctx))

	_, ok, err := bb.LastMessage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	msg, _, _ := bb.LastMessage(ctx)
	assert.Equal(t, blackboard.RoleUser, msg.Role)
}
