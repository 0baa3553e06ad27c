package model

import (
	"time"

	"gorm.io/datatypes"
)

// TraceEntry is the durable decision log row. Seq comes from the trace
// recorder, never from the database.
type TraceEntry struct {
	Seq       uint64         `gorm:"primaryKey;autoIncrement:false"`
	Section   int            `gorm:"not null;index"`
	Action    string         `gorm:"type:text"`
	Outcome   string         `gorm:"type:varchar(64);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (TraceEntry) TableName() string {
	return "trace_entries"
}
