package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/store"
)

func sampleResult() *pipeline.RunResult {
	yes := true
	return &pipeline.RunResult{
		ID:            "run-42",
		Topic:         "Photosynthesis",
		ResearchNotes: "- light",
		MCQs: []json.RawMessage{
			json.RawMessage(`{"question":"q1","options":["A","B","C","D"],"answer":"A","explanation":"e"}`),
			json.RawMessage(`{"question":"q2"}`),
			json.RawMessage(`{"question":"q3","options":["A","B","C","D"],"answer":"C","explanation":"e"}`),
		},
		Solutions: []pipeline.Solution{
			{ChosenAnswer: "A", Reason: "r"},
			{Error: pipeline.SolutionInvalidMCQ},
			{ChosenAnswer: "C", Reason: "r"},
		},
		Validations: []pipeline.Validation{
			{Valid: true, Feedback: "ok", AnswerMatches: &yes},
			{Valid: false, Feedback: pipeline.FeedbackMCQInvalid},
			{Valid: true, Feedback: "ok", AnswerMatches: &yes},
		},
		CreatedAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestFileSink_WritesIndentedJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "output")
	fs := NewFileSink(dir, "")
	assert.Equal(t, filepath.Join(dir, DefaultFileName), fs.Path())

	require.NoError(t, fs.Save(context.Background(), sampleResult()))

	data, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"id\": \"run-42\""), "got %q", string(data)[:40])

	var back pipeline.RunResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Photosynthesis", back.Topic)
	assert.Len(t, back.MCQs, 3)
	assert.Equal(t, pipeline.SolutionInvalidMCQ, back.Solutions[1].Error)
}

func TestFileSink_OverwritesAndWritesErrorResults(t *testing.T) {
	fs := NewFileSink(t.TempDir(), "out.json")
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, sampleResult()))
	require.NoError(t, fs.Save(ctx, &pipeline.RunResult{ID: "x", Error: pipeline.ErrMsgMCQListSize}))

	data, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"MCQ list size incorrect"}`, string(data))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSink_RoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sk := NewStoreSink(s.RunRepo())

	require.NoError(t, sk.Save(ctx, sampleResult()))
	require.NoError(t, sk.Save(ctx, &pipeline.RunResult{ID: "bad", Topic: "Pluto", Error: pipeline.ErrMsgMCQJSONInvalid}))

	rec, err := s.RunRepo().GetRun(ctx, "run-42")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, store.RunStatusOK, rec.Status)
	assert.Equal(t, 3, rec.MCQCount)
	assert.Equal(t, 2, rec.ValidCount)

	res, err := Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Solutions, res.Solutions)

	rec, err = s.RunRepo().GetRun(ctx, "bad")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, store.RunStatusError, rec.Status)
	assert.Equal(t, pipeline.ErrMsgMCQJSONInvalid, rec.Error)

	res, err = Decode(rec)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, "Pluto", res.Topic)
	assert.Equal(t, "bad", res.ID)
}

type failingSink struct{ err error }

func (f failingSink) Save(context.Context, *pipeline.RunResult) error { return f.err }

func TestMulti_ContinuesPastFailures(t *testing.T) {
	fs := NewFileSink(t.TempDir(), "")
	boom := errors.New("boom")

	err := Multi{failingSink{boom}, nil, fs}.Save(context.Background(), sampleResult())
	assert.ErrorIs(t, err, boom)
	assert.FileExists(t, fs.Path())

	assert.NoError(t, Multi{fs}.Save(context.Background(), sampleResult()))
}

func TestRedisSink(t *testing.T) {
	addr := os.Getenv("MCQFLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MCQFLOW_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "mcqflow-test-" + time.Now().Format("150405.000")

	rs, err := NewRedisSink(ctx, RedisOptions{Addr: addr, Prefix: prefix, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() {
		rs.client.Del(ctx, rs.runKey("run-42"), rs.listKey())
		rs.Close()
	})

	require.NoError(t, rs.Save(ctx, sampleResult()))

	got, err := rs.Get(ctx, "run-42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Photosynthesis", got.Topic)

	ids, err := rs.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-42"}, ids)

	missing, err := rs.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewRedisSink_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisSink(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
