// Package pool indexes a question bank for quota-cell lookups.
package pool

import (
	"sort"
	"strings"

	"github.com/cbot-lab/cbot/internal/question"
)

// cellKey identifies one (topic, category, difficulty) bucket.
type cellKey struct {
	Topic      string
	Category   question.Category
	Difficulty question.Difficulty
}

// Index is an immutable in-memory index over a question bank.
// Build it with New; it is safe for concurrent reads.
type Index struct {
	buckets map[cellKey][]question.Question
	size    int
}

// New builds an Index. Questions without a topic are not reachable
// through any topic query. Questions without a difficulty are indexed
// as Medium. Later duplicates of an identity are ignored.
func New(questions []question.Question) *Index {
	idx := &Index{buckets: make(map[cellKey][]question.Question)}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		idx.size++

		topic := normalizeTopic(q.Topic)
		if topic == "" {
			continue
		}
		k := cellKey{Topic: topic, Category: q.Category, Difficulty: q.Difficulty.OrDefault()}
		idx.buckets[k] = append(idx.buckets[k], q)
	}
	for k := range idx.buckets {
		b := idx.buckets[k]
		sort.Slice(b, func(i, j int) bool { return b[i].ID < b[j].ID })
	}
	return idx
}

// Len returns the number of distinct questions indexed.
func (idx *Index) Len() int {
	return idx.size
}

// Query returns every question in the given category and difficulty
// whose topic is one of topics, ordered by ID. The result is a fresh
// slice the caller may modify.
func (idx *Index) Query(topics []string, category question.Category, difficulty question.Difficulty) []question.Question {
	var out []question.Question
	seen := make(map[string]bool)
	for _, t := range topics {
		t = normalizeTopic(t)
		if t == "" {
			continue
		}
		for _, q := range idx.buckets[cellKey{Topic: t, Category: category, Difficulty: difficulty}] {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CellStat is the number of questions in one bucket.
type CellStat struct {
	Topic      string
	Category   question.Category
	Difficulty question.Difficulty
	Count      int
}

// Stats lists every non-empty bucket ordered by topic, then category
// and difficulty in presentation order.
func (idx *Index) Stats() []CellStat {
	stats := make([]CellStat, 0, len(idx.buckets))
	for k, b := range idx.buckets {
		stats = append(stats, CellStat{Topic: k.Topic, Category: k.Category, Difficulty: k.Difficulty, Count: len(b)})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		if a.Category != b.Category {
			return categoryRank(a.Category) < categoryRank(b.Category)
		}
		return difficultyRank(a.Difficulty) < difficultyRank(b.Difficulty)
	})
	return stats
}

// Topics returns the distinct topics present in the index, sorted.
func (idx *Index) Topics() []string {
	set := make(map[string]bool)
	for k := range idx.buckets {
		set[k.Topic] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeTopic(t string) string {
	return strings.TrimSpace(t)
}

func categoryRank(c question.Category) int {
	for i, x := range question.Categories() {
		if x == c {
			return i
		}
	}
	return len(question.Categories())
}

func difficultyRank(d question.Difficulty) int {
	for i, x := range question.Difficulties() {
		if x == d {
			return i
		}
	}
	return len(question.Difficulties())
}
