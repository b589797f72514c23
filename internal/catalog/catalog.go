// Package catalog holds the static knowledge base: coffee beans, brew recipes
// and the troubleshooting rule table. Everything is loaded once at startup and
// read-only for the process lifetime; agents hold references into the catalog
// and never own copies.
package catalog

import (
	"fmt"
	"strings"

	"github.com/dyluth/barista/internal/cbr"
)

// Bean is an immutable coffee bean record.
type Bean struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Origin       string   `json:"origin"`
	Type         string   `json:"type"`
	RoastLevel   int      `json:"roast_level"`
	Processing   string   `json:"processing"`
	TastingNotes string   `json:"tasting_notes"`
	ExpertTags   []string `json:"expert_tags"`
}

// MatchesTag reports whether the bean carries a tag containing the keyword,
// case-insensitively.
func (b *Bean) MatchesTag(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, tag := range b.ExpertTags {
		if strings.Contains(strings.ToLower(tag), keyword) {
			return true
		}
	}
	return false
}

// Description returns a one-line display description.
func (b *Bean) Description() string {
	return fmt.Sprintf("%s (%s) - %s, Roast Lv %d", b.Name, b.Origin, b.Processing, b.RoastLevel)
}

// Features converts the bean into a CBR feature vector.
func (b *Bean) Features() cbr.Features {
	return cbr.Features{
		"origin":      cbr.Categorical(b.Origin),
		"roast_level": cbr.Numeric(float64(b.RoastLevel)),
		"processing":  cbr.Categorical(b.Processing),
	}
}

// Recipe is an immutable brew recipe record. Many recipes may exist per bean.
type Recipe struct {
	ID             string  `json:"recipe_id"`
	BeanID         string  `json:"bean_id"`
	BrewMethod     string  `json:"brew_method"`
	GrindSize      string  `json:"grind_size"`
	CoffeeGrams    float64 `json:"coffee_grams"`
	WaterGrams     float64 `json:"water_grams"`
	WaterTempC     float64 `json:"water_temp_c"`
	TechniqueNotes string  `json:"technique_notes"`
}

// Ratio returns the water-to-coffee ratio, or 0 when undefined.
func (r *Recipe) Ratio() float64 {
	if r.CoffeeGrams <= 0 {
		return 0
	}
	return r.WaterGrams / r.CoffeeGrams
}

// Cause is one entry of a problem's ordered cause list in the rule table.
type Cause struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	Solution string `json:"solution"`
}

// KnownMethods is the closed brew-method vocabulary recognized in user text.
var KnownMethods = []string{"v60", "aeropress", "french press", "chemex", "kalita"}

// Catalog bundles the loaded knowledge base. A missing or corrupt source file
// degrades to an empty collection (knowledge-unavailable mode) rather than an
// error; see Load.
type Catalog struct {
	Beans   []Bean
	Recipes []Recipe

	// Rules maps a top-level problem category to its ordered cause list.
	// The list order fixes the order of the diagnostic cause queue.
	Rules map[string][]Cause
}

// BeanByID returns the bean with the given ID.
func (c *Catalog) BeanByID(id string) (*Bean, bool) {
	for i := range c.Beans {
		if c.Beans[i].ID == id {
			return &c.Beans[i], true
		}
	}
	return nil, false
}

// FindBeanIn returns the first catalog bean whose name appears as a
// case-insensitive substring of the text.
func (c *Catalog) FindBeanIn(text string) (*Bean, bool) {
	lowered := strings.ToLower(text)
	for i := range c.Beans {
		if strings.Contains(lowered, strings.ToLower(c.Beans[i].Name)) {
			return &c.Beans[i], true
		}
	}
	return nil, false
}

// RecipeByID returns the recipe with the given ID.
func (c *Catalog) RecipeByID(id string) (*Recipe, bool) {
	for i := range c.Recipes {
		if c.Recipes[i].ID == id {
			return &c.Recipes[i], true
		}
	}
	return nil, false
}

// RecipesForBean returns all recipes recorded for a bean, in catalog order.
func (c *Catalog) RecipesForBean(beanID string) []Recipe {
	var recipes []Recipe
	for i := range c.Recipes {
		if c.Recipes[i].BeanID == beanID {
			recipes = append(recipes, c.Recipes[i])
		}
	}
	return recipes
}

// FindRecipe returns the first recipe for the bean whose method name appears
// as a case-insensitive substring of methodText.
func (c *Catalog) FindRecipe(beanID, methodText string) (*Recipe, bool) {
	lowered := strings.ToLower(methodText)
	for i := range c.Recipes {
		r := &c.Recipes[i]
		if r.BeanID == beanID && strings.Contains(lowered, strings.ToLower(r.BrewMethod)) {
			return r, true
		}
	}
	return nil, false
}

// MethodIn returns the first known brew-method keyword found in the text.
func MethodIn(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, method := range KnownMethods {
		if strings.Contains(lowered, method) {
			return method, true
		}
	}
	return "", false
}

// RulesFor returns the ordered cause list for a problem category.
func (c *Catalog) RulesFor(problem string) ([]Cause, bool) {
	causes, ok := c.Rules[problem]
	return causes, ok
}
