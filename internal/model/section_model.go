package model

import (
	"time"

	"github.com/google/uuid"
)

// Section holds the raw source text for one gamebook section, one row
// per (number, kind).
type Section struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number    int       `gorm:"not null;uniqueIndex:idx_sections_number_kind,priority:1"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sections_number_kind,priority:2"`
	RawText   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Section) TableName() string {
	return "sections"
}
