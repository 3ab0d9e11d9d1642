package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the configured AI provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		h := engine.Gateway.CheckHealth(commandContext(cmd))
		if outputJSON {
			return printJSON(cmd, h)
		}
		cmd.Printf("provider: %s\nmodel: %s\navailable: %t\n", h.Provider, h.Model, h.Available)
		if !h.Available {
			return fmt.Errorf("provider unavailable: %s", h.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
