package generation

import (
	"context"
)

// TaskKind tells the provider which transformation is being requested.
type TaskKind string

const (
	// TaskFormatNarrative turns raw section text into formatted narrative.
	// Game-mechanic tokens must be preserved verbatim.
	TaskFormatNarrative TaskKind = "FORMAT_NARRATIVE"
	// TaskExtractRules turns raw rule text into a structured rule set.
	TaskExtractRules TaskKind = "EXTRACT_RULES"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any generation backend. The engine
// treats it as an opaque collaborator: output that fails downstream
// schema validation is a typed failure, never a crash.
type Provider interface {
	// Generate runs the task's prompt over the input text and returns
	// the raw model output.
	Generate(ctx context.Context, task TaskKind, input string, options ...Option) (string, error)
}
