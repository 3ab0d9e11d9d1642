package cli

import (
	"github.com/spf13/cobra"

	"gopherai-training/internal/app"
)

var (
	ingestName          string
	ingestCategory      string
	ingestWeaponSystems []string
	ingestCourseTypes   []string
	ingestTopics        []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the knowledge base",
	Long: `Reads a .txt, .md or .pdf file, chunks it and indexes it. A document with the
same name is replaced. Changes persist only when the MySQL mirror is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (default: file name)")
	ingestCmd.Flags().StringVarP(&ingestCategory, "category", "c", "reference", "document category")
	ingestCmd.Flags().StringSliceVar(&ingestWeaponSystems, "weapon-system", nil, "weapon system tags")
	ingestCmd.Flags().StringSliceVar(&ingestCourseTypes, "course-type", nil, "course type tags")
	ingestCmd.Flags().StringSliceVar(&ingestTopics, "topic", nil, "topic tags")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	id, err := ingestFile(commandContext(cmd), args[0], app.IngestInput{
		Name:          ingestName,
		Category:      ingestCategory,
		WeaponSystems: ingestWeaponSystems,
		CourseTypes:   ingestCourseTypes,
		Topics:        ingestTopics,
	})
	if err != nil {
		return err
	}
	detail, err := engine.Knowledge.Get(id)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, detail.Document)
	}
	cmd.Printf("Ingested %s as %s (%d chunks)\n", detail.Document.Name, id, len(detail.Chunks))
	return nil
}
