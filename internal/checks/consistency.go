package checks

import "encoding/json"

// AnswersMatch reports whether the MCQ's "answer" equals the solution's
// "chosen_answer". Both texts must decode to JSON objects; comparison is
// exact and case-sensitive. A missing or non-string value never matches,
// not even another missing value.
func AnswersMatch(mcqText, solutionText string) bool {
	answer, ok := stringField(mcqText, "answer")
	if !ok {
		return false
	}
	chosen, ok := stringField(solutionText, "chosen_answer")
	if !ok {
		return false
	}
	return answer == chosen
}

func stringField(text, key string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}
