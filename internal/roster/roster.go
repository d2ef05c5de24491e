// Package roster holds the examinee-side records: lobbies, crew members
// and the subject books a lobby studies from.
package roster

import (
	"strings"
)

// Rank is a crew member's grade.
type Rank string

const (
	RankLP  Rank = "LP"
	RankALP Rank = "ALP"
)

// Lobby is a group of crew members that joins tests with a shared code.
type Lobby struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// CrewMember is one examinee.
type CrewMember struct {
	ID       string `json:"id" validate:"required"`
	MemberID string `json:"memberId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	LobbyID  string `json:"lobbyId" validate:"required"`
	Rank     Rank   `json:"rank" validate:"oneof=LP ALP"`
}

// BookType separates general rules from technical manuals.
type BookType string

const (
	BookGSR  BookType = "GSR"
	BookTech BookType = "TECH"
)

// SubjectBook is a reference document that question page references
// point into.
type SubjectBook struct {
	ID       string   `json:"id" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Type     BookType `json:"type" validate:"oneof=GSR TECH"`
	Category string   `json:"category"`
	SubGroup string   `json:"subGroup,omitempty" validate:"omitempty,oneof=Diesel AC GSR"`
	Format   string   `json:"format" validate:"oneof=PDF DOCX"`
	FileName string   `json:"fileName"`
}

// normalizeCode makes join codes and member ids comparable regardless of
// surrounding spaces or letter case.
func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FindLobbyByCode returns the lobby whose join code matches code.
func FindLobbyByCode(lobbies []Lobby, code string) (Lobby, bool) {
	want := normalizeCode(code)
	if want == "" {
		return Lobby{}, false
	}
	for _, l := range lobbies {
		if normalizeCode(l.Code) == want {
			return l, true
		}
	}
	return Lobby{}, false
}

// FindMember returns the crew member of lobbyID with the given member id.
func FindMember(crew []CrewMember, lobbyID, memberID string) (CrewMember, bool) {
	want := normalizeCode(memberID)
	if want == "" {
		return CrewMember{}, false
	}
	for _, c := range crew {
		if c.LobbyID == lobbyID && normalizeCode(c.MemberID) == want {
			return c, true
		}
	}
	return CrewMember{}, false
}

// MembersOf returns the crew members assigned to lobbyID in roster order.
func MembersOf(crew []CrewMember, lobbyID string) []CrewMember {
	var out []CrewMember
	for _, c := range crew {
		if c.LobbyID == lobbyID {
			out = append(out, c)
		}
	}
	return out
}
