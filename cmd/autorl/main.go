package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "autorl",
		Short: "AutoRL - mobile automation dashboard backend",
		Long: `AutoRL serves the dashboard backend for simulated mobile-automation
runs. It drives the task lifecycle simulation, streams events over SSE
and WebSocket, and tracks the device fleet and episodic memory.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
