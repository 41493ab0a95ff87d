package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile   string
	logLevelFlag string
	logFormat    string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskgate",
		Short: "Score tasks and dispatch them to a remote agent or the local executor",
		Long: `Taskgate scores each task for complexity and routes it:
	low complexity goes to a remote agent, medium complexity goes to a remote
	agent with local fallback, and high complexity runs locally.

	Tasks are JSON objects: {"type": "...", "prompt": "...", "metadata": {...}}.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ~/.taskgate/config.yaml)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(scoreCmd())
	root.AddCommand(routeCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(syntaxCmd())
	root.AddCommand(modelsCmd())

	return root
}
