package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/scoring"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func openTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { r.Close() })
	return r
}

// backends returns one fresh instance of every Backing.
func backends(t *testing.T) map[string]Backing {
	return map[string]Backing{
		"sqlite": openTestStore(t),
		"redis":  openTestRedis(t),
		"memory": NewMemory(),
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestKV_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, kv.Set(ctx, "k", []byte("one")))
			require.NoError(t, kv.Set(ctx, "k", []byte("two")))
			v, found, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "two", string(v))

			require.NoError(t, kv.Delete(ctx, "k"))
			_, found, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestSQLite_RevisionIncreasesAcrossKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rev, err := s.Revision(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, rev)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	ra, _ := s.Revision(ctx, "a")
	require.NoError(t, s.Set(ctx, "b", []byte("1")))
	rb, _ := s.Revision(ctx, "b")
	require.NoError(t, s.Set(ctx, "a", []byte("2")))
	ra2, _ := s.Revision(ctx, "a")

	assert.Less(t, ra, rb)
	assert.Less(t, rb, ra2)
}

func TestRedis_KeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer r.Close()

	require.NoError(t, r.Set(ctx, KeyLobbies, []byte("[]")))
	assert.True(t, mr.Exists("cbot:"+KeyLobbies))
	assert.False(t, mr.Exists(KeyLobbies))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := OpenRedis(context.Background(), "redis://127.0.0.1:1/0")
	require.Error(t, err)

	_, err = OpenRedis(context.Background(), "")
	require.Error(t, err)
}

func fixturePatterns() []pattern.ExamPattern {
	return []pattern.ExamPattern{{
		ID:                   "p1",
		Title:                "Refresher",
		Subject:              "GSR",
		TotalDurationMinutes: 30,
		TotalMarks:           20,
		Sections: []pattern.Section{{
			ID: "s1", Name: "Signals", QuestionCount: 10, MarksPerQuestion: 2, NegativeMarks: 0.5,
			Topics: []string{"Signals"}, ConceptInterpretationCount: 10,
		}},
		DifficultyDistribution: pattern.DifficultyDistribution{EasyPercentage: 30, MediumPercentage: 50, HardPercentage: 20},
		CreatedAt:              time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
}

func fixtureAttempts() []scoring.TestAttempt {
	return []scoring.TestAttempt{{
		ID: "a1", PatternID: "p1", PatternTitle: "Refresher",
		LobbyID: "l1", LobbyCode: "NS-01", CrewID: "c1", CrewName: "R. Iyer", CrewRank: roster.RankLP,
		Score: 1.5, TotalPossible: 6, CorrectCount: 1, WrongCount: 1, UnansweredCount: 1,
		CompletedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		EndReason:   scoring.EndSubmitted,
		Answers:     map[string]question.Option{"q1": question.OptionA, "q2": question.OptionD},
		Questions: []question.Question{
			{ID: "q1", Text: "one", CorrectAnswer: "A", Category: question.CategoryConcept, Difficulty: question.Easy},
			{ID: "q2", Text: "two", CorrectAnswer: "B", Category: question.CategoryConcept, Difficulty: question.Medium},
			{ID: "q3", Text: "three", CorrectAnswer: "C", Category: question.CategoryConcept, Difficulty: question.Hard},
		},
		Sections: []scoring.SectionResult{{
			SectionName: "Signals", MarksPerQuestion: 2, NegativeMarks: 0.5,
			QuestionIDs: []string{"q1", "q2", "q3"}, Score: 1.5, TotalPossible: 6,
			CorrectCount: 1, WrongCount: 1, UnansweredCount: 1,
		}},
	}}
}

func TestCollections_RoundTripEveryBackend(t *testing.T) {
	ctx := context.Background()
	lobbies := []roster.Lobby{{ID: "l1", Name: "North", Code: "NS-01"}}
	crew := []roster.CrewMember{{ID: "c1", MemberID: "LP100", Name: "R. Iyer", LobbyID: "l1", Rank: roster.RankLP}}
	books := []roster.SubjectBook{{ID: "b1", Title: "General Rules", Type: roster.BookGSR, Category: "Rules", Format: "PDF", FileName: "gr.pdf"}}

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := NewCollections(kv, nil)
			require.NoError(t, c.LoadAll(ctx))
			assert.Zero(t, c.Patterns.Len(), "absent key must load as empty")

			require.NoError(t, c.Patterns.Replace(ctx, fixturePatterns()))
			require.NoError(t, c.Attempts.Replace(ctx, fixtureAttempts()))
			require.NoError(t, c.Lobbies.Replace(ctx, lobbies))
			require.NoError(t, c.Crew.Replace(ctx, crew))
			require.NoError(t, c.Books.Replace(ctx, books))

			fresh := NewCollections(kv, nil)
			require.NoError(t, fresh.LoadAll(ctx))
			assert.Equal(t, fixturePatterns(), fresh.Patterns.All())
			assert.Equal(t, fixtureAttempts(), fresh.Attempts.All())
			assert.Equal(t, lobbies, fresh.Lobbies.All())
			assert.Equal(t, crew, fresh.Crew.All())
			assert.Equal(t, books, fresh.Books.All())
		})
	}
}

func TestCollection_StoredAsVersionedEnvelope(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	c := NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", nil)
	require.NoError(t, c.Replace(ctx, nil))

	raw, found, err := kv.Get(ctx, KeyLobbies)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"schema":"v1.0.0","kind":"lobbies","items":[]}`, string(raw))
}

func TestCollection_UpgradesLegacyArray(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	legacy := `[{"id":"l1","name":"North","code":"NS-01"},{"id":"l2","name":"South","code":"SS-02"}]`
	require.NoError(t, kv.Set(ctx, KeyLobbies, []byte(legacy)))

	c := NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", nil)
	require.NoError(t, c.Load(ctx))
	require.Len(t, c.All(), 2)
	assert.Equal(t, "SS-02", c.All()[1].Code)

	// The next write stores the versioned form.
	require.NoError(t, c.Replace(ctx, c.All()))
	raw, _, _ := kv.Get(ctx, KeyLobbies)
	assert.True(t, strings.HasPrefix(string(raw), `{"schema":"v1.0.0"`), string(raw))
}

func TestCollection_DecodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"newer major", `{"schema":"v2.0.0","kind":"lobbies","items":[]}`, "newer than supported"},
		{"same major newer minor ok", `{"schema":"v1.4.0","kind":"lobbies","items":[]}`, ""},
		{"wrong kind", `{"schema":"v1.0.0","kind":"crew","items":[]}`, `stored kind is "crew"`},
		{"missing items", `{"schema":"v1.0.0","kind":"lobbies"}`, "envelope validation failed"},
		{"bad version", `{"schema":"1.0","kind":"lobbies","items":[]}`, "envelope validation failed"},
		{"not json", `{"schema":`, "invalid JSON"},
		{"legacy wrong shape", `[1,2,3]`, "legacy array"},
		{"null items", `{"schema":"v1.0.0","kind":"lobbies","items":null}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemory()
			require.NoError(t, kv.Set(ctx, KeyLobbies, []byte(tt.raw)))
			c := NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", nil)

			err := c.Load(ctx)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// failingKV fails every write after the first n.
type failingKV struct {
	*Memory
	allow int
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.allow <= 0 {
		return errors.New("disk full")
	}
	f.allow--
	return f.Memory.Set(ctx, key, value)
}

func TestCollection_FailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: NewMemory(), allow: 1}
	c := NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", nil)

	first := []roster.Lobby{{ID: "l1", Name: "North", Code: "NS-01"}}
	require.NoError(t, c.Replace(ctx, first))

	err := c.Replace(ctx, append(first, roster.Lobby{ID: "l2", Name: "South", Code: "SS-02"}))
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "set", se.Op)
	assert.Equal(t, KeyLobbies, se.Key)
	assert.Equal(t, first, c.All())

	err = c.Update(ctx, func(ls []roster.Lobby) ([]roster.Lobby, error) {
		return ls[:0], nil
	})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, first, c.All())
}

func TestCollection_UpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	c := NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", nil)

	boom := errors.New("boom")
	err := c.Update(ctx, func(ls []roster.Lobby) ([]roster.Lobby, error) {
		return append(ls, roster.Lobby{ID: "x"}), boom
	})
	require.ErrorIs(t, err, boom)
	_, found, _ := kv.Get(ctx, KeyLobbies)
	assert.False(t, found, "nothing is written when the update fails")
}

func TestCollection_AllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[roster.Lobby](NewMemory(), KeyLobbies, "lobbies", nil)
	require.NoError(t, c.Replace(ctx, []roster.Lobby{{ID: "l1"}}))

	got := c.All()
	got[0].ID = "changed"
	assert.Equal(t, "l1", c.All()[0].ID)
}

func TestCollection_NestedFieldsAreNotShared(t *testing.T) {
	ctx := context.Background()
	cols := NewCollections(NewMemory(), nil)
	in := fixtureAttempts()
	require.NoError(t, cols.Attempts.Replace(ctx, in))
	require.NoError(t, cols.Patterns.Replace(ctx, fixturePatterns()))

	in[0].Answers["q3"] = question.OptionA
	in[0].Questions[0].CorrectAnswer = question.OptionD

	got := cols.Attempts.All()
	got[0].Answers["q3"] = question.OptionB
	got[0].Questions[1].CorrectAnswer = question.OptionD
	got[0].Sections[0].QuestionIDs[0] = "qx"

	ps := cols.Patterns.All()
	ps[0].Sections[0].QuestionCount = 99
	ps[0].Sections[0].Topics[0] = "Changed"

	err := cols.Attempts.Update(ctx, func(as []scoring.TestAttempt) ([]scoring.TestAttempt, error) {
		as[0].Answers["q9"] = question.OptionC
		return as, errors.New("abandoned")
	})
	require.EqualError(t, err, "abandoned")
	assert.Equal(t, fixtureAttempts(), cols.Attempts.All())
	assert.Equal(t, fixturePatterns(), cols.Patterns.All())

	fresh := NewCollections(cols.Attempts.kv, nil)
	require.NoError(t, fresh.LoadAll(ctx))
	assert.Equal(t, fixtureAttempts(), fresh.Attempts.All())
}

func TestLLMEvents_EveryBackend(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.AppendLLMRequest(ctx, LLMRequestEventData{
				Provider: "mock", Model: "m1", Purpose: "debrief", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true,
			}))
			require.NoError(t, b.AppendLLMRequest(ctx, LLMRequestEventData{
				Provider: "mock", Model: "m1", Purpose: "debrief", InputTokens: 20, OutputTokens: 15, LatencyMs: 300,
				ErrorMessage: "rate limited",
			}))

			events, err := b.QueryLLMEvents(ctx, 0)
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "rate limited", events[0].ErrorMessage, "newest first")
			assert.Greater(t, events[0].Sequence, events[1].Sequence)

			limited, err := b.QueryLLMEvents(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			e, err := b.GetLLMEvent(ctx, events[1].ID)
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, 10, e.InputTokens)
			assert.True(t, e.Success)

			missing, err := b.GetLLMEvent(ctx, 9999)
			require.NoError(t, err)
			assert.Nil(t, missing)

			usage := UsageByPurpose(events)
			require.Len(t, usage, 1)
			assert.Equal(t, 2, usage[0].Calls)
			assert.Equal(t, 30, usage[0].InputTokens)
			assert.Equal(t, int64(200), usage[0].AvgLatencyMs)
		})
	}
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	require.Error(t, err)
}
