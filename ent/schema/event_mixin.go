// Package schema describes the store tables as ent schemas. The store
// creates the tables itself; its tests check the DDL against these fields.
package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// EventMixin holds the ordering fields every stored row carries.
type EventMixin struct {
	mixin.Schema
}

func (EventMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Immutable().
			Comment("Monotonically increasing sequence shared by all tables"),
		field.Int64("timestamp").
			Immutable().
			Comment("UTC wall-clock time in Unix milliseconds"),
	}
}

func (EventMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("sequence"),
	}
}
