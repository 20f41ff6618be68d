package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSchema(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"complete", `{"question":"q","options":["A","B","C","D"],"answer":"A","explanation":"e"}`, true},
		{"extra fields allowed", `{"question":"q","options":[],"answer":"A","explanation":"e","difficulty":3}`, true},
		{"null values still present", `{"question":null,"options":null,"answer":null,"explanation":null}`, true},
		{"missing explanation", `{"question":"q","options":["A"],"answer":"A"}`, false},
		{"missing answer", `{"question":"q","options":["A"],"explanation":"e"}`, false},
		{"array", `[{"question":"q","options":[],"answer":"A","explanation":"e"}]`, false},
		{"string", `"question"`, false},
		{"number", `42`, false},
		{"null", `null`, false},
		{"not json", `question: q`, false},
		{"empty", ``, false},
		{"truncated", `{"question":"q",`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSchema(tt.text))
		})
	}
}

func TestIsValidSchema_Repeatable(t *testing.T) {
	text := `{"question":"q","options":["A"],"answer":"A","explanation":"e"}`
	for range 3 {
		assert.True(t, IsValidSchema(text))
	}
	assert.False(t, IsValidSchema(`{}`))
	assert.True(t, IsValidSchema(text))
}

func TestValidateMCQ_Reason(t *testing.T) {
	assert.ErrorContains(t, ValidateMCQ(`nope`), "invalid JSON")
	assert.ErrorContains(t, ValidateMCQ(`{"question":"q"}`), "schema validation failed")
	assert.NoError(t, ValidateMCQ(`{"question":"q","options":[],"answer":"","explanation":""}`))
}

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		name     string
		mcq      string
		solution string
		want     bool
	}{
		{"equal", `{"answer":"B"}`, `{"chosen_answer":"B","reason":"r"}`, true},
		{"different", `{"answer":"B"}`, `{"chosen_answer":"C"}`, false},
		{"case sensitive", `{"answer":"b"}`, `{"chosen_answer":"B"}`, false},
		{"whitespace matters", `{"answer":"B "}`, `{"chosen_answer":"B"}`, false},
		{"solution missing field", `{"answer":"B"}`, `{"reason":"r"}`, false},
		{"both missing", `{"question":"q"}`, `{"reason":"r"}`, false},
		{"non-string answer", `{"answer":1}`, `{"chosen_answer":1}`, false},
		{"null answers", `{"answer":null}`, `{"chosen_answer":null}`, false},
		{"mcq not json", `answer B`, `{"chosen_answer":"B"}`, false},
		{"solution not json", `{"answer":"B"}`, `B`, false},
		{"solution array", `{"answer":"B"}`, `["B"]`, false},
		{"empty strings match", `{"answer":""}`, `{"chosen_answer":""}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnswersMatch(tt.mcq, tt.solution))
		})
	}
}
