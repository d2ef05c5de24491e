// Package report exports attempt records as spreadsheets.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cbot-lab/cbot/internal/scoring"
)

// Sheet names.
const (
	SheetAttempts = "Attempts"
	SheetSections = "Sections"
)

var attemptHeader = []any{
	"Attempt ID", "Completed At", "Crew", "Member ID", "Rank", "Lobby", "Lobby Code",
	"Pattern", "End Reason", "Score", "Total", "Correct", "Wrong", "Unanswered", "Percentage",
}

var sectionHeader = []any{
	"Attempt ID", "Crew", "Section", "Marks/Q", "Negative", "Questions",
	"Score", "Total", "Correct", "Wrong", "Unanswered",
}

// WriteAttempts writes an XLSX workbook with one row per attempt on the
// Attempts sheet and one row per attempt section on the Sections sheet.
func WriteAttempts(w io.Writer, attempts []scoring.TestAttempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAttempts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSections); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	rows := make([][]any, 0, len(attempts))
	var sectionRows [][]any
	for _, a := range attempts {
		rows = append(rows, []any{
			a.ID,
			a.CompletedAt.UTC().Format(time.RFC3339),
			a.CrewName,
			a.CrewMemberID,
			string(a.CrewRank),
			a.LobbyName,
			a.LobbyCode,
			a.PatternTitle,
			string(a.EndReason),
			a.Score,
			a.TotalPossible,
			a.CorrectCount,
			a.WrongCount,
			a.UnansweredCount,
			round2(a.Percentage()),
		})
		for _, s := range a.Sections {
			sectionRows = append(sectionRows, []any{
				a.ID,
				a.CrewName,
				s.SectionName,
				s.MarksPerQuestion,
				s.NegativeMarks,
				len(s.QuestionIDs),
				s.Score,
				s.TotalPossible,
				s.CorrectCount,
				s.WrongCount,
				s.UnansweredCount,
			})
		}
	}

	if err := writeSheet(f, SheetAttempts, attemptHeader, rows, header); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSections, sectionHeader, sectionRows, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
