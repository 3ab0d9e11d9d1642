package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"gopherai-training/internal/app"
	"gopherai-training/internal/bootstrap"
	"gopherai-training/internal/config"
	"gopherai-training/internal/corpus"
)

var (
	configPath string
	loadFiles  []string
	outputJSON bool

	// engine is built on first use; tests install their own.
	engine *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Offline knowledge base and AI task client",
	Long: `kbctl runs the document store, retrieval engine and AI gateway in-process.
The corpus is whatever the seed manifest, the MySQL mirror (when enabled) and
--load files provide; nothing is kept between runs otherwise.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupEngine,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	rootCmd.PersistentFlags().StringSliceVar(&loadFiles, "load", nil, "text, markdown or PDF files to ingest before running the command")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
}

// Execute runs the root command and releases the engine afterwards.
func Execute() error {
	defer func() {
		if engine != nil {
			_ = engine.Close()
			engine = nil
		}
	}()
	return rootCmd.Execute()
}

func setupEngine(cmd *cobra.Command, _ []string) error {
	if engine == nil {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg.Knowledge.WatchDir = ""

		a, err := bootstrap.New(commandContext(cmd), cfg)
		if err != nil {
			return fmt.Errorf("start engine failed: %w", err)
		}
		engine = a
	}

	for _, path := range loadFiles {
		if _, err := ingestFile(commandContext(cmd), path, app.IngestInput{}); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(ctx context.Context, path string, input app.IngestInput) (string, error) {
	content, pages, err := corpus.ReadDocument(path)
	if err != nil {
		return "", err
	}
	if input.Name == "" {
		input.Name = filepath.Base(path)
	}
	input.Content = content
	input.PageCount = pages

	res, err := engine.Knowledge.ReplaceByName(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ingest %s failed: %w", path, err)
	}
	return res.DocumentID, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
