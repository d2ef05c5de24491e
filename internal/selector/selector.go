// Package selector resolves an exam pattern into a concrete ordered list
// of questions drawn from a pool index.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/pool"
	"github.com/cbot-lab/cbot/internal/question"
)

// Allocation records which questions were drawn for a section and the
// marking rules that apply to them.
type Allocation struct {
	SectionID        string   `json:"sectionId,omitempty"`
	SectionName      string   `json:"sectionName"`
	MarksPerQuestion float64  `json:"marksPerQuestion"`
	NegativeMarks    float64  `json:"negativeMarks"`
	QuestionIDs      []string `json:"questionIds"`
}

// Selection is the ordered outcome of Select.
type Selection struct {
	PatternID   string
	Seed        uint64
	Questions   []question.Question
	Allocations []Allocation
}

// InsufficientPoolError reports a quota cell the pool cannot fill.
type InsufficientPoolError struct {
	Section    string
	Category   question.Category
	Difficulty question.Difficulty
	Required   int
	Available  int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient pool for section %q, %s/%s: need %d, have %d",
		e.Section, e.Category, e.Difficulty, e.Required, e.Available)
}

// Select draws questions for every quota cell of p.
//
// The same pattern, pool and seed always produce the same ordered result.
// A question identity is never drawn twice, even when it is eligible for
// several sections. If any cell cannot be filled the whole selection
// fails with *InsufficientPoolError; patterns with blocking validation
// issues fail with *pattern.ValidationError.
func Select(p pattern.ExamPattern, idx *pool.Index, seed uint64) (*Selection, error) {
	if err := pattern.Validate(p).Err(); err != nil {
		var verr *pattern.ValidationError
		if errors.As(err, &verr) {
			verr.PatternID = p.ID
		}
		return nil, err
	}

	rng := newRand(seed)
	used := make(map[string]bool, p.QuestionCount())
	sel := &Selection{
		PatternID: p.ID,
		Seed:      seed,
		Questions: make([]question.Question, 0, p.QuestionCount()),
	}

	for _, sp := range Plan(p) {
		alloc := Allocation{
			SectionID:        sp.Section.ID,
			SectionName:      sp.Section.Name,
			MarksPerQuestion: sp.Section.MarksPerQuestion,
			NegativeMarks:    sp.Section.NegativeMarks,
			QuestionIDs:      make([]string, 0, sp.Required()),
		}

		for _, cell := range sp.Cells {
			if cell.Required == 0 {
				continue
			}
			candidates := unused(idx.Query(sp.Section.Topics, cell.Category, cell.Difficulty), used)
			if len(candidates) < cell.Required {
				return nil, &InsufficientPoolError{
					Section:    sp.Section.Name,
					Category:   cell.Category,
					Difficulty: cell.Difficulty,
					Required:   cell.Required,
					Available:  len(candidates),
				}
			}
			for _, q := range draw(rng, candidates, cell.Required) {
				used[q.ID] = true
				sel.Questions = append(sel.Questions, q)
				alloc.QuestionIDs = append(alloc.QuestionIDs, q.ID)
			}
		}
		sel.Allocations = append(sel.Allocations, alloc)
	}

	return sel, nil
}

// NewSeed returns a fresh random seed for a production session.
func NewSeed() uint64 {
	return rand.Uint64()
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// unused filters out identities already drawn.
func unused(qs []question.Question, used map[string]bool) []question.Question {
	out := qs[:0]
	for _, q := range qs {
		if !used[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

// draw picks k items uniformly without replacement using a partial
// Fisher-Yates shuffle. candidates is reordered in place.
func draw(rng *rand.Rand, candidates []question.Question, k int) []question.Question {
	n := len(candidates)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates[:k]
}
