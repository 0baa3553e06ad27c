package model

import (
	"time"

	"github.com/google/uuid"
)

// Artifact holds one derived artifact (formatted narrative or serialized
// rule set) per (section, kind). Replaced wholesale on overwrite.
type Artifact struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Section   int       `gorm:"not null;uniqueIndex:idx_artifacts_section_kind,priority:1"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_artifacts_section_kind,priority:2"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Artifact) TableName() string {
	return "artifacts"
}
