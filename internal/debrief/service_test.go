package debrief

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbot-lab/cbot/internal/llm"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/scoring"
)

func q(id, topic, page string, correct question.Option) question.Question {
	return question.Question{
		ID: id, Text: "Question " + id, CorrectAnswer: correct,
		Category: question.CategoryConcept, Topic: topic, PageReference: page,
	}
}

func attempt() scoring.TestAttempt {
	return scoring.TestAttempt{
		ID:           "att-1",
		PatternTitle: "Signals refresher",
		Questions: []question.Question{
			q("q1", "Signals", "GR 3.01", question.OptionA),
			q("q2", "Signals", "GR 3.07", question.OptionB),
			q("q3", "Brakes", "", question.OptionC),
			q("q4", "", "", question.OptionD),
		},
		Answers: map[string]question.Option{
			"q1": question.OptionA,
			"q2": question.OptionC,
		},
		Score: 0.5, TotalPossible: 8, CorrectCount: 1, WrongCount: 1, UnansweredCount: 2,
	}
}

func reply(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return llm.MockResponse{Content: raw}
}

func TestMissedQuestions(t *testing.T) {
	missed := MissedQuestions(attempt())
	require.Len(t, missed, 3)
	assert.Equal(t, "q2", missed[0].QuestionID)
	assert.Equal(t, question.OptionC, missed[0].Chosen)
	assert.Equal(t, question.OptionB, missed[0].Correct)
	assert.Equal(t, "q3", missed[1].QuestionID)
	assert.Empty(t, missed[1].Chosen)
	assert.Equal(t, "q4", missed[2].QuestionID)
}

func TestGenerate(t *testing.T) {
	mock := llm.NewMockProvider(reply(t, map[string]any{
		"summary": "Marks were lost on signal aspects and brake tests.",
		"topics": []map[string]any{
			{"topic": "Signals", "focus": "Revise permissive aspects.", "pages": []string{"GR 3.07", "GR 9.99"}},
			{"topic": "Brakes", "focus": "Revise the continuity test.", "pages": []string{}},
			{"topic": "Shunting", "focus": "Not asked about.", "pages": []string{}},
		},
	}))
	svc := NewService(mock, DefaultConfig(), nil)

	d, err := svc.Generate(context.Background(), attempt())
	require.NoError(t, err)
	assert.Equal(t, "att-1", d.AttemptID)
	assert.Equal(t, "mock", d.Model)
	assert.Len(t, d.Missed, 3)
	require.Len(t, d.Topics, 2)
	assert.Equal(t, "Brakes", d.Topics[0].Topic)
	assert.Equal(t, "Signals", d.Topics[1].Topic)
	assert.Equal(t, []string{"GR 3.07"}, d.Topics[1].Pages)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, DebriefSchema, calls[0].Schema)
	prompt := calls[0].Messages[0].Content
	assert.Contains(t, prompt, "[Signals] Question q2 (chosen: C, correct: B, page: GR 3.07)")
	assert.Contains(t, prompt, "[General] Question q4 (chosen: none, correct: D)")
	assert.NotContains(t, prompt, "Question q1")
}

func TestGenerate_PerfectAttemptSkipsModel(t *testing.T) {
	a := attempt()
	a.Questions = a.Questions[:1]
	mock := llm.NewMockProvider()

	d, err := NewService(mock, DefaultConfig(), nil).Generate(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, d.Missed)
	assert.NotEmpty(t, d.Summary)
	assert.Empty(t, mock.Calls())
}

func TestGenerate_Errors(t *testing.T) {
	_, err := NewService(nil, DefaultConfig(), nil).Generate(context.Background(), attempt())
	require.ErrorIs(t, err, ErrUnavailable)

	boom := errors.New("boom")
	_, err = NewService(llm.NewMockProvider(llm.MockResponse{Err: boom}), DefaultConfig(), nil).
		Generate(context.Background(), attempt())
	require.ErrorIs(t, err, boom)

	_, err = NewService(llm.NewMockProvider(reply(t, map[string]any{"summary": 3})), DefaultConfig(), nil).
		Generate(context.Background(), attempt())
	var invalid *llm.InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestGenerate_CapsPrompt(t *testing.T) {
	mock := llm.NewMockProvider(reply(t, map[string]any{"summary": "s", "topics": []any{}}))
	cfg := DefaultConfig()
	cfg.MaxMissed = 1

	d, err := NewService(mock, cfg, nil).Generate(context.Background(), attempt())
	require.NoError(t, err)
	assert.Len(t, d.Missed, 3)

	prompt := mock.Calls()[0].Messages[0].Content
	assert.Equal(t, 1, strings.Count(prompt, "\n- ["))
}

func TestRequestConsume(t *testing.T) {
	mock := llm.NewMockProvider(reply(t, map[string]any{"summary": "s", "topics": []any{}}))
	svc := NewService(mock, DefaultConfig(), nil)

	_, ok := svc.Consume()
	assert.False(t, ok)

	svc.Request(context.Background(), attempt())

	var got Result
	require.Eventually(t, func() bool {
		var ready bool
		got, ready = svc.Consume()
		return ready
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, got.Err)
	assert.Equal(t, "s", got.Debrief.Summary)

	_, ok = svc.Consume()
	assert.False(t, ok)
}
