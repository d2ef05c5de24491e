package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/selector"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Inspect the question bank",
}

var poolStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count questions per topic, category and difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requirePool(); err != nil {
			return err
		}

		idx := e.eng.Pool()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d questions in %d topics\n\n", idx.Len(), len(idx.Topics()))

		header := []string{fmt.Sprintf("%-28s", "Topic")}
		for _, c := range question.Categories() {
			for _, d := range question.Difficulties() {
				header = append(header, fmt.Sprintf("%5s", string(c)[:3]+"/"+string(d)[:1]))
			}
		}
		fmt.Fprintln(out, strings.Join(header, " "))
		fmt.Fprintln(out, strings.Repeat("─", 28+6*9))

		counts := make(map[string]map[string]int)
		for _, s := range idx.Stats() {
			if counts[s.Topic] == nil {
				counts[s.Topic] = make(map[string]int)
			}
			counts[s.Topic][string(s.Category)+"/"+string(s.Difficulty)] = s.Count
		}
		for _, topic := range idx.Topics() {
			row := []string{fmt.Sprintf("%-28s", truncate(topic, 28))}
			for _, c := range question.Categories() {
				for _, d := range question.Difficulties() {
					row = append(row, fmt.Sprintf("%5d", counts[topic][string(c)+"/"+string(d)]))
				}
			}
			fmt.Fprintln(out, strings.Join(row, " "))
		}
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <pattern-id>",
	Short: "Draw a paper for a pattern without starting a test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requirePool(); err != nil {
			return err
		}

		seed, _ := cmd.Flags().GetUint64("seed")
		if seed == 0 {
			seed = selector.NewSeed()
		}
		sel, err := e.eng.Select(args[0], seed)
		if err != nil {
			return err
		}

		byID := make(map[string]question.Question, len(sel.Questions))
		for _, q := range sel.Questions {
			byID[q.ID] = q
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Seed %d, %d questions\n", sel.Seed, len(sel.Questions))
		for _, a := range sel.Allocations {
			fmt.Fprintf(out, "\n%s (%d)\n", a.SectionName, len(a.QuestionIDs))
			for _, id := range a.QuestionIDs {
				q := byID[id]
				fmt.Fprintf(out, "  %-20s %-10s %-7s %s\n",
					truncate(q.ID, 20), q.Category, q.Difficulty.OrDefault(), truncate(q.Text, 60))
			}
		}
		return nil
	},
}

func init() {
	selectCmd.Flags().Uint64("seed", 0, "Selection seed; the same seed draws the same paper")
	poolCmd.AddCommand(poolStatsCmd)
}
