package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitzies/pulseflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>",
	Short: "Check a workflow graph for consistency",
	Long:  `Verifies that the workflow has exactly one start node, unique node IDs and no edges pointing at missing nodes.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Validate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
