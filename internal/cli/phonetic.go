package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-progression-service/internal/matching"
)

// NewPhoneticCmd prints the normalized form and Cologne code of each argument.
func NewPhoneticCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phonetic <text>...",
		Short: "Show normalized form and Cologne phonetic code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				fmt.Fprintf(out, "%s\t%s\t%s\n", arg, matching.Normalize(arg), matching.Encode(arg))
			}
			return nil
		},
	}
}
