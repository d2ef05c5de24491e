package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/app"
	"github.com/cbot-lab/cbot/internal/debrief"
	"github.com/cbot-lab/cbot/internal/llm"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Open the test-taking screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTake(cmd)
	},
}

func takeFlags(c *cobra.Command) {
	c.Flags().StringP("pattern", "p", "", "Pattern id every examinee sits (skips the menu)")
	c.Flags().Uint64("seed", 0, "Fixed selection seed, for rehearsals")
	c.Flags().Bool("no-splash", false, "Start on the join screen")
}

func init() {
	takeFlags(takeCmd)
}

// runTake opens the store, builds dependencies, and launches the TUI.
func runTake(cmd *cobra.Command) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requirePool(); err != nil {
		return err
	}

	patternID, _ := cmd.Flags().GetString("pattern")
	if patternID != "" {
		if _, err := e.eng.Pattern(patternID); err != nil {
			return err
		}
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	noSplash, _ := cmd.Flags().GetBool("no-splash")

	opts := app.Options{
		Engine:     e.eng,
		PatternID:  patternID,
		Seed:       seed,
		SkipSplash: noSplash,
	}

	// The debrief is optional; the test runs without an LLM provider.
	if e.cfg.LLM.Enabled() {
		provider, err := llm.New(cmd.Context(), e.cfg.LLM, e.backing, e.logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Debriefs will be unavailable.")
		} else {
			opts.Debrief = debrief.NewService(provider, debrief.DefaultConfig(), e.logger)
		}
	}

	return app.Run(cmd.Context(), opts)
}
