// Package checks holds the pure structural checks applied to model output.
package checks

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// RequiredMCQFields are the keys every MCQ object must carry.
var RequiredMCQFields = []string{"question", "options", "answer", "explanation"}

const mcqSchemaURL = "schema://mcq.json"

var mcqSchema = sync.OnceValues(compileMCQSchema)

func compileMCQSchema() (*jsonschema.Schema, error) {
	required := make([]any, len(RequiredMCQFields))
	for i, f := range RequiredMCQFields {
		required[i] = f
	}
	def := map[string]any{
		"type":     "object",
		"required": required,
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(mcqSchemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(mcqSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}

// IsValidSchema reports whether text decodes to a JSON object carrying
// question, options, answer and explanation. Field values are not checked.
func IsValidSchema(text string) bool {
	return ValidateMCQ(text) == nil
}

// ValidateMCQ is IsValidSchema with the reason for rejection.
func ValidateMCQ(text string) error {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := mcqSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
