package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trivia-service/internal/domain"
	"trivia-service/internal/grading"
)

// NewCheckCmd grades a single answer from the command line, handy for
// eyeballing the fuzzy matching without a running server.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check CORRECT_ANSWER USER_ANSWER TYPE DIFFICULTY",
		Short: "Grade one answer (TYPE is TF, QA, or LQ)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			questionType, err := domain.ParseQuestionType(args[2])
			if err != nil {
				return err
			}
			difficulty, err := strconv.Atoi(args[3])
			if err != nil || difficulty < 1 || difficulty > 5 {
				return domain.ErrInvalidDifficulty
			}

			correct, points := grading.Evaluate(args[0], args[1], questionType, difficulty)
			fmt.Fprintf(cmd.OutOrStdout(), "correct: %v\npoints:  %d\n", correct, points)
			return nil
		},
	}
}
