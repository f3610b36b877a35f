package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitzies/pulseflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pulseflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulseflow version %s\n", strings.TrimSpace(pulseflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
