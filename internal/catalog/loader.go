package catalog

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Source file names expected inside the dataset directory.
const (
	BeansFile   = "coffee_beans.json"
	RecipesFile = "brew_recipes.json"
	RulesFile   = "troubleshooting_knowledge_base.json"
)

// ruleEntry mirrors the on-disk rule table shape. Causes are an ordered array
// so the diagnostic cause queue has a stable, documented order.
type ruleEntry struct {
	Causes []Cause `json:"causes"`
}

// Load reads the knowledge base from dir. Load never fails: a missing or
// corrupt file degrades to an empty collection with a logged warning, putting
// the affected agents into knowledge-unavailable mode.
func Load(dir string) *Catalog {
	c := &Catalog{Rules: map[string][]Cause{}}

	if err := loadJSON(filepath.Join(dir, BeansFile), &c.Beans); err != nil {
		log.Printf("[Catalog] beans unavailable: %v", err)
		c.Beans = nil
	}

	if err := loadJSON(filepath.Join(dir, RecipesFile), &c.Recipes); err != nil {
		log.Printf("[Catalog] recipes unavailable: %v", err)
		c.Recipes = nil
	}

	var rules map[string]ruleEntry
	if err := loadJSON(filepath.Join(dir, RulesFile), &rules); err != nil {
		log.Printf("[Catalog] troubleshooting rules unavailable: %v", err)
	} else {
		for problem, entry := range rules {
			c.Rules[problem] = entry.Causes
		}
	}

	log.Printf("[Catalog] loaded %d beans, %d recipes, %d problem rules",
		len(c.Beans), len(c.Recipes), len(c.Rules))

	return c
}

func loadJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
