package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/config"
	"github.com/dyluth/barista/internal/printer"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the loaded knowledge base",
	Long: `Print the beans, recipes and troubleshooting rules loaded from the
dataset directory. Useful for checking what the agents can work with.

Examples:
  # Show everything
  barista catalog

  # Use a different dataset directory
  barista catalog --config=path/to/barista.yml`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return printer.Error("configuration error", err.Error(), nil)
	}

	cat := catalog.Load(cfg.DatasetDir)

	printer.Printf("Beans (%d):\n\n", len(cat.Beans))
	printer.Printf("%-10s %-22s %-12s %-6s %-11s %s\n",
		"ID", "NAME", "ORIGIN", "ROAST", "PROCESS", "TAGS")
	printer.Printf("%-10s %-22s %-12s %-6s %-11s %s\n",
		"--", "----", "------", "-----", "-------", "----")
	for _, b := range cat.Beans {
		printer.Printf("%-10s %-22s %-12s %-6d %-11s %s\n",
			b.ID, b.Name, b.Origin, b.RoastLevel, b.Processing, strings.Join(b.ExpertTags, ", "))
	}

	printer.Printf("\nRecipes (%d):\n\n", len(cat.Recipes))
	printer.Printf("%-12s %-10s %-14s %-9s %-6s %s\n",
		"ID", "BEAN", "METHOD", "RATIO", "TEMP", "GRIND")
	printer.Printf("%-12s %-10s %-14s %-9s %-6s %s\n",
		"--", "----", "------", "-----", "----", "-----")
	for _, r := range cat.Recipes {
		ratio := fmt.Sprintf("%.0fg/%.0fml", r.CoffeeGrams, r.WaterGrams)
		printer.Printf("%-12s %-10s %-14s %-9s %-6.0f %s\n",
			r.ID, r.BeanID, r.BrewMethod, ratio, r.WaterTempC, r.GrindSize)
	}

	printer.Printf("\nTroubleshooting rules (%d problems):\n\n", len(cat.Rules))
	for problem, causes := range cat.Rules {
		printer.Printf("%s:\n", problem)
		for _, c := range causes {
			printer.Printf("  - %s\n", c.Key)
		}
	}

	return nil
}
