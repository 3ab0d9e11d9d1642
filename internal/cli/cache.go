package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"gopherai-training/internal/cache"
)

var purgeCacheCmd = &cobra.Command{
	Use:   "purge-cache",
	Short: "Drop cached provider responses",
	Long: `Deletes every cached provider response from redis. Run it after changing the
model or the prompt templates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if engine.Redis == nil {
			return errors.New("redis is not enabled or not reachable")
		}
		n, err := cache.NewResponseCache(engine.Redis, 0).Purge(commandContext(cmd))
		if err != nil {
			return err
		}
		cmd.Printf("Purged %d cached responses\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCacheCmd)
}
