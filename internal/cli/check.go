package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-progression-service/internal/matching"
)

// NewCheckCmd runs the answer matcher offline.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <answer> <correct> [alternatives...]",
		Short: "Check whether an answer would be accepted",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := "wrong"
			if matching.IsCorrect(args[0], args[1], args[2:]...) {
				verdict = "correct"
			}
			fmt.Fprintln(cmd.OutOrStdout(), verdict)
			return nil
		},
	}
}
