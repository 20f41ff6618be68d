package pipeline

import "fmt"

// ResearchPrompt asks for plain-text research notes on topic.
func ResearchPrompt(topic string) string {
	return fmt.Sprintf("Research the topic '%s' in 6 bullet points. Output plain text.", topic)
}

const generateTemplate = `Based on the research notes below:

%s

Generate EXACTLY 3 MCQs in STRICT JSON format as a list:

[
  {
    "question": "",
    "options": ["A", "B", "C", "D"],
    "answer": "A",
    "explanation": ""
  },
  {
    "question": "",
    "options": ["A", "B", "C", "D"],
    "answer": "B",
    "explanation": ""
  },
  {
    "question": "",
    "options": ["A", "B", "C", "D"],
    "answer": "C",
    "explanation": ""
  }
]

Rules:
- Respond ONLY with JSON.
- Ensure the JSON is valid and parseable.
- Do NOT include trailing commas.
`

// GeneratePrompt asks for a JSON array of exactly three MCQs built from notes.
func GeneratePrompt(notes string) string {
	return fmt.Sprintf(generateTemplate, notes)
}

// SolvePrompt asks the model to answer one MCQ given as JSON.
func SolvePrompt(mcqJSON string) string {
	return fmt.Sprintf("Solve this MCQ:\n%s\nReturn JSON: {\"chosen_answer\":\"A\",\"reason\":\"\"}\n", mcqJSON)
}

// ValidatePrompt asks the model to judge solution against the MCQ.
func ValidatePrompt(mcqJSON, solution string) string {
	return fmt.Sprintf("Validate the solution.\nMCQ: %s\nSolution:%s\nReturn JSON:{\"valid\":true,\"feedback\":\"\"}\n", mcqJSON, solution)
}
