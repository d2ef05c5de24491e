package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateLobbies checks every lobby record and that ids and join codes
// are unique.
func ValidateLobbies(lobbies []Lobby) error {
	var problems []string
	ids := make(map[string]bool, len(lobbies))
	codes := make(map[string]bool, len(lobbies))
	for i, l := range lobbies {
		if err := validate.Struct(l); err != nil {
			problems = append(problems, fmt.Sprintf("lobby[%d]: %s", i, describe(err)))
		}
		if l.ID != "" {
			if ids[l.ID] {
				problems = append(problems, fmt.Sprintf("lobby[%d]: duplicate id %q", i, l.ID))
			}
			ids[l.ID] = true
		}
		if c := normalizeCode(l.Code); c != "" {
			if codes[c] {
				problems = append(problems, fmt.Sprintf("lobby[%d]: duplicate code %q", i, l.Code))
			}
			codes[c] = true
		}
	}
	return joinProblems("lobbies", problems)
}

// ValidateCrew checks every crew record. When lobbies is non-nil each
// member's lobby must exist. Member ids must be unique within a lobby.
func ValidateCrew(crew []CrewMember, lobbies []Lobby) error {
	var problems []string
	known := make(map[string]bool, len(lobbies))
	for _, l := range lobbies {
		known[l.ID] = true
	}
	ids := make(map[string]bool, len(crew))
	members := make(map[string]bool, len(crew))
	for i, c := range crew {
		if err := validate.Struct(c); err != nil {
			problems = append(problems, fmt.Sprintf("crew[%d]: %s", i, describe(err)))
		}
		if c.ID != "" {
			if ids[c.ID] {
				problems = append(problems, fmt.Sprintf("crew[%d]: duplicate id %q", i, c.ID))
			}
			ids[c.ID] = true
		}
		key := c.LobbyID + "\x00" + normalizeCode(c.MemberID)
		if c.MemberID != "" {
			if members[key] {
				problems = append(problems, fmt.Sprintf("crew[%d]: duplicate member id %q in lobby %q", i, c.MemberID, c.LobbyID))
			}
			members[key] = true
		}
		if lobbies != nil && c.LobbyID != "" && !known[c.LobbyID] {
			problems = append(problems, fmt.Sprintf("crew[%d]: unknown lobby %q", i, c.LobbyID))
		}
	}
	return joinProblems("crew", problems)
}

// ValidateBooks checks every subject book record.
func ValidateBooks(books []SubjectBook) error {
	var problems []string
	ids := make(map[string]bool, len(books))
	for i, b := range books {
		if err := validate.Struct(b); err != nil {
			problems = append(problems, fmt.Sprintf("book[%d]: %s", i, describe(err)))
		}
		if b.ID != "" {
			if ids[b.ID] {
				problems = append(problems, fmt.Sprintf("book[%d]: duplicate id %q", i, b.ID))
			}
			ids[b.ID] = true
		}
	}
	return joinProblems("books", problems)
}

func joinProblems(what string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%s validation failed:\n  %s", what, strings.Join(problems, "\n  "))
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
