package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BeansFile, `[
		{"id": "bean-001", "name": "Ethiopia Yirgacheffe", "origin": "Ethiopia", "roast_level": 1, "processing": "Washed", "expert_tags": ["Fruity"]}
	]`)
	writeFile(t, dir, RecipesFile, `[
		{"recipe_id": "recipe-001", "bean_id": "bean-001", "brew_method": "V60", "coffee_grams": 15, "water_grams": 250, "water_temp_c": 93}
	]`)
	writeFile(t, dir, RulesFile, `{
		"too_sour": {"causes": [
			{"key": "grind_coarse", "question": "Coarse?", "solution": "Grind finer."},
			{"key": "water_temp_low", "question": "Cool?", "solution": "Brew hotter."}
		]}
	}`)

	c := Load(dir)
	require.Len(t, c.Beans, 1)
	require.Len(t, c.Recipes, 1)
	assert.Equal(t, "Ethiopia Yirgacheffe", c.Beans[0].Name)
	assert.Equal(t, "V60", c.Recipes[0].BrewMethod)

	causes, ok := c.RulesFor("too_sour")
	require.True(t, ok)
	require.Len(t, causes, 2)
	// File order is the diagnostic order.
	assert.Equal(t, "grind_coarse", causes[0].Key)
	assert.Equal(t, "water_temp_low", causes[1].Key)
}

func TestLoadMissingDirDegrades(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nowhere"))
	assert.Empty(t, c.Beans)
	assert.Empty(t, c.Recipes)
	assert.Empty(t, c.Rules)
}

func TestLoadCorruptFileDegradesThatCollection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BeansFile, `{not json`)
	writeFile(t, dir, RecipesFile, `[
		{"recipe_id": "recipe-001", "bean_id": "bean-001", "brew_method": "V60"}
	]`)

	c := Load(dir)
	assert.Empty(t, c.Beans)
	assert.Len(t, c.Recipes, 1)
}

func TestLoadShippedDatasets(t *testing.T) {
	c := Load(filepath.Join("..", "..", "datasets"))
	assert.NotEmpty(t, c.Beans)
	assert.NotEmpty(t, c.Recipes)
	for _, problem := range []string{"too_sour", "too_bitter", "too_weak"} {
		causes, ok := c.RulesFor(problem)
		assert.True(t, ok, problem)
		assert.NotEmpty(t, causes, problem)
	}
}
