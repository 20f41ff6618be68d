package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Run is one persisted pipeline result.
type Run struct {
	ent.Schema
}

func (Run) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (Run) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			Comment("Run UUID"),
		field.String("topic"),
		field.Enum("status").
			Values("ok", "error"),
		field.String("error").
			Default(""),
		field.Int("mcq_count").
			Default(0),
		field.Int("valid_count").
			Default(0).
			Comment("MCQs that passed schema validation"),
		field.Text("payload").
			Comment("The full result as JSON"),
	}
}
