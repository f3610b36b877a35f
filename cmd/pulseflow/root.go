package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pulseflow",
	Short: "PulseFlow is a deterministic workflow engine for on-chain operations",
	Long:  `PulseFlow walks node graphs of swaps, transfers and liquidity operations, resolving amounts at execution time and reporting progress as it goes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable verbose logging")
}
