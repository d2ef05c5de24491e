package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cbot",
	Short: "Pattern-based objective tests for running staff",
	Long: "CBOT builds objective tests for loco pilots and assistant loco pilots from a\n" +
		"question bank and an exam pattern, runs them against the clock and scores them.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTake(cmd)
	},
}

// Execute runs the root command. Cancelling ctx stops a running test.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides CBOT_DB)")
	pf.String("store", "", "Storage backend: sqlite, redis or memory (overrides CBOT_STORE)")
	pf.String("redis-url", "", "Redis URL for the redis backend (overrides CBOT_REDIS_URL)")
	pf.String("questions", "", "Question bank JSON file (overrides CBOT_QUESTIONS)")
	pf.String("admin-secret", "", "Administrator secret for changes (or CBOT_ADMIN_SECRET)")

	takeFlags(rootCmd)

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(patternCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(lobbyCmd)
	rootCmd.AddCommand(crewCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}
