package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gopherai-training/internal/app"
)

var (
	questionsCategory   string
	questionsDifficulty string
	questionsCount      int
	questionsUseKB      bool
)

var questionsCmd = &cobra.Command{
	Use:   "questions [content]",
	Short: "Generate multiple-choice questions from content",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestions,
}

func init() {
	questionsCmd.Flags().StringVarP(&questionsCategory, "category", "c", "general", "question category")
	questionsCmd.Flags().StringVarP(&questionsDifficulty, "difficulty", "d", app.DefaultDifficulty, "basic, intermediate or advanced")
	questionsCmd.Flags().IntVarP(&questionsCount, "count", "n", app.DefaultQuestionCount, "number of questions (1-20)")
	questionsCmd.Flags().BoolVar(&questionsUseKB, "kb", false, "add matching knowledge base chunks as reference material")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, args []string) error {
	res, err := engine.Questions.Generate(commandContext(cmd), app.QuestionInput{
		Content:          args[0],
		Category:         questionsCategory,
		Difficulty:       questionsDifficulty,
		Count:            questionsCount,
		UseKnowledgeBase: questionsUseKB,
	})
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, res)
	}

	for i, q := range res.Questions {
		cmd.Printf("%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			marker := " "
			if j == q.CorrectIndex {
				marker = "*"
			}
			cmd.Printf("   %s %c) %s\n", marker, 'A'+j, opt)
		}
		if q.Explanation != "" {
			cmd.Printf("   %s\n", strings.TrimSpace(q.Explanation))
		}
		cmd.Println()
	}
	if res.ParseWarning != "" {
		cmd.Printf("Warning: %s\n", res.ParseWarning)
	}
	return nil
}
