package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitzies/pulseflow/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the PulseFlow engine in server mode, exposing run launch, status, events and cancellation over a JSON API, plus Prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		file, _ := cmd.Flags().GetString("file")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.ServeOptions{
			File:  file,
			Port:  port,
			Debug: debug,
		}
		if err := cli.Serve(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().StringP("file", "f", "", "Workflow definition to preload")
}
