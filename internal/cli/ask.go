package cli

import (
	"github.com/spf13/cobra"

	"gopherai-training/internal/app"
)

var askWeaponSystem string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askWeaponSystem, "weapon-system", "w", "", "only use chunks tagged with this weapon system or topic")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	res, err := engine.Ask.Ask(commandContext(cmd), app.AskInput{
		Question:     args[0],
		WeaponSystem: askWeaponSystem,
	})
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, res)
	}

	cmd.Println(res.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %.2f (provider %s)\n", res.Confidence, res.Provider)
	for _, s := range res.Sources {
		cmd.Printf("  - %s [%s] %.2f\n", s.DocumentName, s.ChunkID, s.Score)
	}
	return nil
}
