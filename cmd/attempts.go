package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/debrief"
	"github.com/cbot-lab/cbot/internal/llm"
	"github.com/cbot-lab/cbot/internal/report"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/scoring"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Review recorded attempts",
}

// filteredAttempts applies the --lobby and --pattern flags.
func filteredAttempts(cmd *cobra.Command, e *env) ([]scoring.TestAttempt, error) {
	lobbyCode, _ := cmd.Flags().GetString("lobby")
	patternID, _ := cmd.Flags().GetString("pattern")

	var lobbyID string
	if lobbyCode != "" {
		l, ok := roster.FindLobbyByCode(e.eng.Lobbies(), lobbyCode)
		if !ok {
			return nil, fmt.Errorf("lobby %q not found", lobbyCode)
		}
		lobbyID = l.ID
	}

	var out []scoring.TestAttempt
	for _, a := range e.eng.Attempts() {
		if lobbyID != "" && a.LobbyID != lobbyID {
			continue
		}
		if patternID != "" && a.PatternID != patternID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

var attemptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		attempts, err := filteredAttempts(cmd, e)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(attempts) == 0 {
			fmt.Fprintln(out, "No attempts found.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-16s  %-12s  %-22s  %9s  %6s  %s\n",
			"ID", "Completed", "Member", "Pattern", "Score", "%", "End")
		fmt.Fprintln(out, strings.Repeat("─", 120))
		for _, a := range attempts {
			fmt.Fprintf(out, "%-36s  %-16s  %-12s  %-22s  %9s  %6.1f  %s\n",
				a.ID,
				a.CompletedAt.Local().Format("2006-01-02 15:04"),
				a.CrewMemberID,
				truncate(a.PatternTitle, 22),
				fmt.Sprintf("%g/%g", a.Score, a.TotalPossible),
				a.Percentage(),
				a.EndReason,
			)
		}
		return nil
	},
}

var attemptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an attempt question by question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		a, err := e.eng.Attempt(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %s\n", a.ID)
		fmt.Fprintf(out, "Pattern:   %s (%s)\n", a.PatternTitle, a.PatternID)
		fmt.Fprintf(out, "Examinee:  %s %s, %s\n", a.CrewRank, a.CrewName, a.CrewMemberID)
		fmt.Fprintf(out, "Lobby:     %s (%s)\n", a.LobbyName, a.LobbyCode)
		fmt.Fprintf(out, "Completed: %s (%s)\n", a.CompletedAt.Local().Format("2006-01-02 15:04:05"), a.EndReason)
		fmt.Fprintf(out, "Score:     %g / %g (%.1f%%)\n", a.Score, a.TotalPossible, a.Percentage())
		fmt.Fprintf(out, "Counts:    %d correct, %d wrong, %d unanswered\n", a.CorrectCount, a.WrongCount, a.UnansweredCount)
		if !scoring.Consistent(a) {
			fmt.Fprintln(out, "Warning:   stored totals differ from a rescore of the answers")
		}

		for _, s := range a.Sections {
			fmt.Fprintf(out, "\n%s  %g/%g  (%d correct, %d wrong, %d unanswered)\n",
				s.SectionName, s.Score, s.TotalPossible, s.CorrectCount, s.WrongCount, s.UnansweredCount)
		}

		fmt.Fprintln(out)
		for i, q := range a.Questions {
			chosen, ok := a.Answers[q.ID]
			mark := "-"
			switch {
			case ok && q.IsCorrect(chosen):
				mark = "✓"
			case ok:
				mark = "✗"
			default:
				chosen = " "
			}
			fmt.Fprintf(out, "%3d. %s %s/%s  %s\n", i+1, mark, chosen, q.CorrectAnswer, truncate(q.Text, 80))
		}
		return nil
	},
}

var attemptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireAdmin(cmd); err != nil {
			return err
		}
		if err := e.eng.DeleteAttempt(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted attempt %s\n", args[0])
		return nil
	},
}

var attemptsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attempts to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		attempts, err := filteredAttempts(cmd, e)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("out")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := report.WriteAttempts(f, attempts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d attempt(s) to %s\n", len(attempts), path)
		return nil
	},
}

var attemptsDebriefCmd = &cobra.Command{
	Use:   "debrief <id>",
	Short: "Ask the LLM for a study plan from an attempt's misses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		a, err := e.eng.Attempt(args[0])
		if err != nil {
			return err
		}
		provider, err := llm.New(cmd.Context(), e.cfg.LLM, e.backing, e.logger)
		if err != nil {
			if errors.Is(err, llm.ErrNotConfigured) {
				return fmt.Errorf("%w: set CBOT_LLM_PROVIDER and CBOT_LLM_API_KEY", err)
			}
			return err
		}

		d, err := debrief.NewService(provider, debrief.DefaultConfig(), e.logger).Generate(cmd.Context(), a)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, d.Summary)
		for _, t := range d.Topics {
			fmt.Fprintf(out, "\n%s\n  %s\n", t.Topic, t.Focus)
			if len(t.Pages) > 0 {
				fmt.Fprintf(out, "  Pages: %s\n", strings.Join(t.Pages, ", "))
			}
		}
		if len(d.Missed) > 0 {
			fmt.Fprintf(out, "\n%d question(s) missed.\n", len(d.Missed))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{attemptsListCmd, attemptsExportCmd} {
		c.Flags().String("lobby", "", "Only attempts from this lobby (join code)")
		c.Flags().String("pattern", "", "Only attempts of this pattern id")
	}
	attemptsExportCmd.Flags().StringP("out", "o", "attempts.xlsx", "Output workbook path")

	attemptsCmd.AddCommand(attemptsListCmd)
	attemptsCmd.AddCommand(attemptsShowCmd)
	attemptsCmd.AddCommand(attemptsDeleteCmd)
	attemptsCmd.AddCommand(attemptsExportCmd)
	attemptsCmd.AddCommand(attemptsDebriefCmd)
}
