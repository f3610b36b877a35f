package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitzies/pulseflow/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <workflow-file>",
	Short: "Dry-run a workflow against the simulated chain",
	Long:  `Loads a workflow definition, seeds the in-memory chain from its simulation block and executes the graph, printing progress per node.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			File:  args[0],
			JSON:  jsonMode,
			Debug: debug,
		}
		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Emit progress events as NDJSON")
}
