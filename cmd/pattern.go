package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/selector"
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Manage exam patterns",
}

var patternListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exam patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		patterns := e.eng.Patterns()
		if len(patterns) == 0 {
			fmt.Fprintln(out, "No patterns found.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-30s  %5s  %6s  %5s\n", "ID", "Title", "Qs", "Marks", "Min")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, p := range patterns {
			fmt.Fprintf(out, "%-36s  %-30s  %5d  %6g  %5d\n",
				p.ID, truncate(p.Title, 30), p.QuestionCount(), p.ComputedMarks(), p.TotalDurationMinutes)
		}
		return nil
	},
}

var patternShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a pattern and its selection plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.eng.Pattern(args[0])
		if err != nil {
			return err
		}
		printPattern(cmd, p)
		return nil
	},
}

var patternValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check pattern files, and the question bank can fill them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		patterns, err := pattern.LoadFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := false
		for i, p := range patterns {
			name := p.Title
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			issues := pattern.Validate(p)
			if issues.Blocking() {
				failed = true
			}
			for _, is := range issues {
				fmt.Fprintf(out, "%s: %s\n", name, is)
			}
			if issues.Blocking() || e.eng.Pool() == nil {
				continue
			}
			if _, err := selector.Select(p, e.eng.Pool(), 1); err != nil {
				failed = true
				fmt.Fprintf(out, "%s: %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "%s: ok\n", name)
		}
		if failed {
			return errors.New("validation failed")
		}
		return nil
	},
}

var patternImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add patterns from a JSON file",
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

		patterns, err := pattern.LoadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range patterns {
			saved, warnings, err := e.eng.AddPattern(cmd.Context(), p)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(out, "%s: %s\n", saved.Title, w)
			}
			fmt.Fprintf(out, "Imported %q as %s\n", saved.Title, saved.ID)
		}
		return nil
	},
}

var patternDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a pattern",
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
		if err := e.eng.DeletePattern(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted pattern %s\n", args[0])
		return nil
	},
}

func printPattern(cmd *cobra.Command, p pattern.ExamPattern) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", p.ID)
	fmt.Fprintf(out, "Title:     %s\n", p.Title)
	if p.Subject != "" {
		fmt.Fprintf(out, "Subject:   %s %s\n", p.Subject, p.SubSubject)
	}
	fmt.Fprintf(out, "Duration:  %d min\n", p.TotalDurationMinutes)
	fmt.Fprintf(out, "Marks:     %g (sections add up to %g)\n", p.TotalMarks, p.ComputedMarks())
	d := p.DifficultyDistribution
	fmt.Fprintf(out, "Mix:       easy %d%% / medium %d%% / hard %d%%\n",
		d.EasyPercentage, d.MediumPercentage, d.HardPercentage)

	for _, sp := range selector.Plan(p) {
		s := sp.Section
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s  (%d x %g, -%g)  topics: %s\n",
			s.Name, s.QuestionCount, s.MarksPerQuestion, s.NegativeMarks, strings.Join(s.Topics, ", "))
		for _, c := range sp.Cells {
			if c.Required == 0 {
				continue
			}
			fmt.Fprintf(out, "  %-10s %-7s %3d\n", c.Category, c.Difficulty, c.Required)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	patternCmd.AddCommand(patternListCmd)
	patternCmd.AddCommand(patternShowCmd)
	patternCmd.AddCommand(patternValidateCmd)
	patternCmd.AddCommand(patternImportCmd)
	patternCmd.AddCommand(patternDeleteCmd)
}
