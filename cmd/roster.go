package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/roster"
)

var lobbyCmd = &cobra.Command{
	Use:   "lobby",
	Short: "Manage crew lobbies",
}

var crewCmd = &cobra.Command{
	Use:   "crew",
	Short: "Manage the crew roster",
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage subject books",
}

var lobbyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lobbies",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		lobbies := e.eng.Lobbies()
		if len(lobbies) == 0 {
			fmt.Fprintln(out, "No lobbies found.")
			return nil
		}
		crew := e.eng.Crew()
		fmt.Fprintf(out, "%-36s  %-10s  %-28s  %s\n", "ID", "Code", "Name", "Crew")
		fmt.Fprintln(out, strings.Repeat("─", 86))
		for _, l := range lobbies {
			fmt.Fprintf(out, "%-36s  %-10s  %-28s  %d\n",
				l.ID, l.Code, truncate(l.Name, 28), len(roster.MembersOf(crew, l.ID)))
		}
		return nil
	},
}

var lobbyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a lobby",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireAdmin(cmd); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		code, _ := cmd.Flags().GetString("code")
		l := roster.Lobby{ID: uuid.NewString(), Name: strings.TrimSpace(name), Code: strings.ToUpper(strings.TrimSpace(code))}
		if err := e.eng.SaveLobbies(cmd.Context(), append(e.eng.Lobbies(), l)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added lobby %s (%s)\n", l.Name, l.ID)
		return nil
	},
}

var lobbyRemoveCmd = &cobra.Command{
	Use:   "remove <id|code>",
	Short: "Remove a lobby with no crew",
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

		lobbies := e.eng.Lobbies()
		i := slices.IndexFunc(lobbies, func(l roster.Lobby) bool {
			return l.ID == args[0] || strings.EqualFold(l.Code, args[0])
		})
		if i < 0 {
			return fmt.Errorf("lobby %q not found", args[0])
		}
		if n := len(roster.MembersOf(e.eng.Crew(), lobbies[i].ID)); n > 0 {
			return fmt.Errorf("lobby %s still has %d crew member(s)", lobbies[i].Code, n)
		}
		name := lobbies[i].Name
		if err := e.eng.SaveLobbies(cmd.Context(), slices.Delete(lobbies, i, i+1)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed lobby %s\n", name)
		return nil
	},
}

var crewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List crew members",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		crew := e.eng.Crew()
		if code, _ := cmd.Flags().GetString("lobby"); code != "" {
			l, ok := roster.FindLobbyByCode(e.eng.Lobbies(), code)
			if !ok {
				return fmt.Errorf("lobby %q not found", code)
			}
			crew = roster.MembersOf(crew, l.ID)
		}

		out := cmd.OutOrStdout()
		if len(crew) == 0 {
			fmt.Fprintln(out, "No crew members found.")
			return nil
		}
		codes := make(map[string]string)
		for _, l := range e.eng.Lobbies() {
			codes[l.ID] = l.Code
		}
		fmt.Fprintf(out, "%-36s  %-12s  %-28s  %-4s  %s\n", "ID", "Member ID", "Name", "Rank", "Lobby")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, c := range crew {
			fmt.Fprintf(out, "%-36s  %-12s  %-28s  %-4s  %s\n",
				c.ID, c.MemberID, truncate(c.Name, 28), c.Rank, codes[c.LobbyID])
		}
		return nil
	},
}

var crewAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a crew member",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireAdmin(cmd); err != nil {
			return err
		}

		flags := cmd.Flags()
		memberID, _ := flags.GetString("member-id")
		name, _ := flags.GetString("name")
		code, _ := flags.GetString("lobby")
		rank, _ := flags.GetString("rank")

		l, ok := roster.FindLobbyByCode(e.eng.Lobbies(), code)
		if !ok {
			return fmt.Errorf("lobby %q not found", code)
		}
		c := roster.CrewMember{
			ID:       uuid.NewString(),
			MemberID: strings.ToUpper(strings.TrimSpace(memberID)),
			Name:     strings.TrimSpace(name),
			LobbyID:  l.ID,
			Rank:     roster.Rank(strings.ToUpper(rank)),
		}
		if err := e.eng.SaveCrew(cmd.Context(), append(e.eng.Crew(), c)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s to %s\n", c.Rank, c.Name, l.Name)
		return nil
	},
}

var crewRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a crew member",
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

		crew := e.eng.Crew()
		i := slices.IndexFunc(crew, func(c roster.CrewMember) bool { return c.ID == args[0] })
		if i < 0 {
			return fmt.Errorf("crew member %q not found", args[0])
		}
		name := crew[i].Name
		if err := e.eng.SaveCrew(cmd.Context(), slices.Delete(crew, i, i+1)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
		return nil
	},
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subject books",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		books := e.eng.Books()
		if len(books) == 0 {
			fmt.Fprintln(out, "No books found.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-34s  %-4s  %-6s  %s\n", "ID", "Title", "Type", "Group", "File")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, b := range books {
			fmt.Fprintf(out, "%-36s  %-34s  %-4s  %-6s  %s\n",
				b.ID, truncate(b.Title, 34), b.Type, b.SubGroup, b.FileName)
		}
		return nil
	},
}

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subject book",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireAdmin(cmd); err != nil {
			return err
		}

		flags := cmd.Flags()
		title, _ := flags.GetString("title")
		typ, _ := flags.GetString("type")
		category, _ := flags.GetString("category")
		subGroup, _ := flags.GetString("sub-group")
		format, _ := flags.GetString("format")
		file, _ := flags.GetString("file")

		b := roster.SubjectBook{
			ID:       uuid.NewString(),
			Title:    strings.TrimSpace(title),
			Type:     roster.BookType(strings.ToUpper(typ)),
			Category: category,
			SubGroup: subGroup,
			Format:   strings.ToUpper(format),
			FileName: file,
		}
		if err := e.eng.SaveBooks(cmd.Context(), append(e.eng.Books(), b)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added book %s (%s)\n", b.Title, b.ID)
		return nil
	},
}

var bookRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a subject book",
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

		books := e.eng.Books()
		i := slices.IndexFunc(books, func(b roster.SubjectBook) bool { return b.ID == args[0] })
		if i < 0 {
			return fmt.Errorf("book %q not found", args[0])
		}
		title := books[i].Title
		if err := e.eng.SaveBooks(cmd.Context(), slices.Delete(books, i, i+1)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed book %s\n", title)
		return nil
	},
}

func init() {
	lobbyAddCmd.Flags().String("name", "", "Lobby name")
	lobbyAddCmd.Flags().String("code", "", "Join code")
	_ = lobbyAddCmd.MarkFlagRequired("name")
	_ = lobbyAddCmd.MarkFlagRequired("code")
	lobbyCmd.AddCommand(lobbyListCmd, lobbyAddCmd, lobbyRemoveCmd)

	crewListCmd.Flags().String("lobby", "", "Only list this lobby's crew (join code)")
	crewAddCmd.Flags().String("member-id", "", "Member ID the examinee joins with")
	crewAddCmd.Flags().String("name", "", "Full name")
	crewAddCmd.Flags().String("lobby", "", "Lobby join code")
	crewAddCmd.Flags().String("rank", string(roster.RankLP), "Rank: LP or ALP")
	for _, f := range []string{"member-id", "name", "lobby"} {
		_ = crewAddCmd.MarkFlagRequired(f)
	}
	crewCmd.AddCommand(crewListCmd, crewAddCmd, crewRemoveCmd)

	bookAddCmd.Flags().String("title", "", "Book title")
	bookAddCmd.Flags().String("type", string(roster.BookGSR), "Book type: GSR or TECH")
	bookAddCmd.Flags().String("category", "", "Category label")
	bookAddCmd.Flags().String("sub-group", "", "Sub-group: Diesel, AC or GSR")
	bookAddCmd.Flags().String("format", "PDF", "File format: PDF or DOCX")
	bookAddCmd.Flags().String("file", "", "File name")
	_ = bookAddCmd.MarkFlagRequired("title")
	bookCmd.AddCommand(bookListCmd, bookAddCmd, bookRemoveCmd)
}
