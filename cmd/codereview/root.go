package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "codereview",
		Short: "Iterative LLM code review, fix and test generation",
		Long: `codereview runs a snippet through four steps: detect issues, suggest a
fix, detect issues in the fix, and generate unit tests. The final state is
printed as JSON on stdout and a summary on stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to YAML config file")

	root.AddCommand(newReviewCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the codereview version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codereview version %s\n", version)
		},
	})
	return root
}
