package pool

import (
	"testing"

	"github.com/cbot-lab/cbot/internal/question"
)

func q(id, topic string, c question.Category, d question.Difficulty) question.Question {
	return question.Question{ID: id, Topic: topic, Category: c, Difficulty: d}
}

func TestQuery_FiltersByCell(t *testing.T) {
	idx := New([]question.Question{
		q("q3", "Signals", question.CategoryConcept, question.Easy),
		q("q1", "Signals", question.CategoryConcept, question.Easy),
		q("q2", "Signals", question.CategoryScenario, question.Easy),
		q("q4", "Signals", question.CategoryConcept, question.Hard),
		q("q5", "Brakes", question.CategoryConcept, question.Easy),
	})

	got := idx.Query([]string{"Signals"}, question.CategoryConcept, question.Easy)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "q1" || got[1].ID != "q3" {
		t.Errorf("order = [%s %s], want [q1 q3]", got[0].ID, got[1].ID)
	}
}

func TestQuery_MultipleTopicsMergedAndSorted(t *testing.T) {
	idx := New([]question.Question{
		q("b2", "Brakes", question.CategoryAuthority, question.Medium),
		q("a1", "Signals", question.CategoryAuthority, question.Medium),
		q("b1", "Brakes", question.CategoryAuthority, question.Medium),
	})

	got := idx.Query([]string{"Signals", "Brakes", "Signals"}, question.CategoryAuthority, question.Medium)
	ids := make([]string, len(got))
	for i, x := range got {
		ids[i] = x.ID
	}
	want := []string{"a1", "b1", "b2"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestNew_DefaultsDifficultyAndSkipsDuplicates(t *testing.T) {
	idx := New([]question.Question{
		q("q1", "Signals", question.CategoryConcept, ""),
		q("q1", "Signals", question.CategoryConcept, question.Hard),
		q("q2", "", question.CategoryConcept, question.Easy),
	})

	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2", idx.Len())
	}
	if got := idx.Query([]string{"Signals"}, question.CategoryConcept, question.Medium); len(got) != 1 {
		t.Errorf("medium bucket = %d, want 1 (untiered question defaults to Medium)", len(got))
	}
	if got := idx.Query([]string{"Signals"}, question.CategoryConcept, question.Hard); len(got) != 0 {
		t.Errorf("hard bucket = %d, want 0 (duplicate ignored)", len(got))
	}
}

func TestQuery_ResultIsCopy(t *testing.T) {
	idx := New([]question.Question{q("q1", "Signals", question.CategoryConcept, question.Easy)})
	got := idx.Query([]string{"Signals"}, question.CategoryConcept, question.Easy)
	got[0].ID = "mutated"

	again := idx.Query([]string{"Signals"}, question.CategoryConcept, question.Easy)
	if again[0].ID != "q1" {
		t.Error("Query must not expose internal storage")
	}
}

func TestStats(t *testing.T) {
	idx := New([]question.Question{
		q("q1", "Signals", question.CategoryScenario, question.Hard),
		q("q2", "Signals", question.CategoryConcept, question.Hard),
		q("q3", "Signals", question.CategoryConcept, question.Easy),
		q("q4", "Brakes", question.CategoryConcept, question.Easy),
	})

	stats := idx.Stats()
	if len(stats) != 4 {
		t.Fatalf("len = %d, want 4", len(stats))
	}
	want := []CellStat{
		{"Brakes", question.CategoryConcept, question.Easy, 1},
		{"Signals", question.CategoryConcept, question.Easy, 1},
		{"Signals", question.CategoryConcept, question.Hard, 1},
		{"Signals", question.CategoryScenario, question.Hard, 1},
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
	if topics := idx.Topics(); len(topics) != 2 || topics[0] != "Brakes" {
		t.Errorf("Topics = %v", topics)
	}
}
