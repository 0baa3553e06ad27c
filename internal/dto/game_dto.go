package dto

import (
	"time"
)

type ProcessSectionRequest struct {
	Section     int    `json:"section" validate:"required,gt=0"`
	PlayerInput string `json:"player_input"`
	RawOverride string `json:"raw_override,omitempty"`

	// Optional request-level generation overrides.
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

type GameStateResponse struct {
	Section            int         `json:"section"`
	PlayerInput        string      `json:"player_input,omitempty"`
	NextSection        *int        `json:"next_section,omitempty"`
	NeedsRandomOutcome bool        `json:"needs_random_outcome"`
	OutcomeKind        string      `json:"outcome_kind"`
	Status             string      `json:"status"`
	Error              *GameError  `json:"error,omitempty"`
	LastUpdate         time.Time   `json:"last_update"`
}

type GameError struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

type GetContentRequest struct {
	Section int `json:"section" validate:"required,gt=0"`
}

type ContentResponse struct {
	Section    int       `json:"section"`
	Body       string    `json:"body"`
	Origin     string    `json:"origin"`
	ProducedAt time.Time `json:"produced_at"`
}

type TraceEntryResponse struct {
	Seq       uint64    `json:"seq"`
	Section   int       `json:"section"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}
