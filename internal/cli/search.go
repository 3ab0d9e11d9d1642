package cli

import (
	"github.com/spf13/cobra"

	"gopherai-training/internal/app"
)

var (
	searchLimit        int
	searchCategory     string
	searchWeaponSystem string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search knowledge base chunks",
	Long: `Ranks chunks by the share of distinct query terms they contain.
--category and --weapon-system narrow the candidates.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only search this category")
	searchCmd.Flags().StringVarP(&searchWeaponSystem, "weapon-system", "w", "", "only search chunks tagged with this weapon system or topic")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	res, err := engine.Knowledge.List(app.ListInput{
		Query:        args[0],
		Category:     searchCategory,
		WeaponSystem: searchWeaponSystem,
		Limit:        searchLimit,
	})
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, res.Results)
	}

	if len(res.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println("Results:")
	cmd.Println()
	for i, r := range res.Results {
		title := r.Chunk.DocumentName
		if section := r.Chunk.Title(); section != "" {
			title += " / " + section
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, r.Score)
		cmd.Printf("      %s\n", snippet(r.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
