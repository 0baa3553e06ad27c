package mapper

import (
	"encoding/json"

	"gamebook-engine/internal/model"
	"gamebook-engine/pkg/store"
)

type TraceMapper struct{}

func NewTraceMapper() *TraceMapper {
	return &TraceMapper{}
}

func (m *TraceMapper) ToModel(entry *store.TraceEntry) *model.TraceEntry {
	payload, _ := json.Marshal(entry)
	return &model.TraceEntry{
		Seq:       entry.Seq,
		Section:   entry.Section,
		Action:    entry.Action,
		Outcome:   entry.Outcome,
		Payload:   payload,
		CreatedAt: entry.Timestamp,
	}
}

func (m *TraceMapper) ToEntry(row *model.TraceEntry) *store.TraceEntry {
	return &store.TraceEntry{
		Seq:       row.Seq,
		Section:   row.Section,
		Action:    row.Action,
		Outcome:   row.Outcome,
		Timestamp: row.CreatedAt,
	}
}
