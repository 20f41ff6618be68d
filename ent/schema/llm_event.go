package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMEvent records every model call for cost tracking and debugging.
type LLMEvent struct {
	ent.Schema
}

func (LLMEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LLMEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("run_id").
			Default("").
			Comment("Run that issued the call, empty outside a run"),
		field.String("provider"),
		field.String("model").
			Comment("Actual model ID used"),
		field.Enum("purpose").
			Values("research", "generate", "solve", "validate"),
		field.Int("input_tokens").
			Default(0),
		field.Int("output_tokens").
			Default(0),
		field.Int64("latency_ms").
			Default(0),
		field.Bool("success"),
		field.String("error_message").
			Default(""),
		field.Text("request_body").
			Default(""),
		field.Text("response_body").
			Default(""),
	}
}

func (LLMEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
	}
}
