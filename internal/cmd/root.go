package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskify",
	Short: "Tasks, habits and monthly progress in one list",
	Long: `taskify serves an HTTP API that merges a user's tasks and the habits of
the current month into a single list of trackable items, keeps monthly
progress up to date and stores everything in SQLite or MongoDB.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCreateUserCmd())
	rootCmd.AddCommand(newSeedCmd())
}
