package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/memory"
	"gamebook-engine/pkg/artifactcache"
	"gamebook-engine/pkg/dice"
	"gamebook-engine/pkg/gamebook/content"
	"gamebook-engine/pkg/gamebook/decision"
	"gamebook-engine/pkg/gamebook/executor"
	"gamebook-engine/pkg/gamebook/rules"
	"gamebook-engine/pkg/gamebook/trace"
	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/store"
)

// Offline playthrough against an in-memory backend and a canned provider.
// No server, no database, no model endpoint needed.

var rawSections = map[int]string{
	1: `1
You stand at the mouth of a dark cave. If you wish to light your lantern
and enter, turn to 145. If you would rather circle the hillside, turn to 278.`,
	145: `145
A low growl rises from a side passage. Draw your sword and fight (turn to
212) or retreat the way you came (turn to 1).`,
	212: `212
The cave troll lumbers toward you. Resolve the combat. If you win, turn
to 301. If you lose, turn to 99.`,
	278: `278
The path narrows above a ravine. Test your luck. If you are lucky, turn
to 301. If you are unlucky, turn to 99.`,
	301: `301
You find a chamber heaped with old coins. Take the iron key and turn to 1.`,
	99: `99
Your adventure ends here.`,
}

var cannedRules = map[int]string{
	1: `section: 1
needs_random_outcome: false
outcome_kind: NONE
next_sections: [145, 278]
choices:
  - text: light your lantern and enter
    kind: DIRECT
    target: 145
  - text: circle the hillside
    kind: DIRECT
    target: 278`,
	145: `section: 145
needs_random_outcome: false
outcome_kind: NONE
next_sections: [212, 1]
choices:
  - text: draw your sword and fight
    kind: DIRECT
    target: 212
  - text: retreat the way you came
    kind: DIRECT
    target: 1`,
	212: `section: 212
needs_random_outcome: true
outcome_kind: COMBAT
next_sections: [301, 99]
choices:
  - text: resolve the combat
    kind: RANDOM
    outcome_kind: COMBAT
    outcome_targets:
      success: 301
      failure: 99`,
	278: `section: 278
needs_random_outcome: true
outcome_kind: CHANCE
next_sections: [301, 99]
choices:
  - text: test your luck
    kind: RANDOM
    outcome_kind: CHANCE
    outcome_targets:
      success: 301
      failure: 99`,
	301: `section: 301
needs_random_outcome: false
outcome_kind: NONE
next_sections: [1]
choices:
  - text: take the key and leave
    kind: DIRECT
    target: 1`,
	99: `section: 99
needs_random_outcome: false
outcome_kind: NONE
next_sections: []
choices: []`,
}

// cannedProvider replays fixed outputs keyed by the section number parsed
// from the input's first line.
type cannedProvider struct{}

func (cannedProvider) Generate(_ context.Context, task generation.TaskKind, input string, _ ...generation.Option) (string, error) {
	var section int
	if _, err := fmt.Sscanf(input, "%d", &section); err != nil {
		return "", fmt.Errorf("canned provider: no section number in input")
	}
	switch task {
	case generation.TaskFormatNarrative:
		return input, nil
	case generation.TaskExtractRules:
		out, ok := cannedRules[section]
		if !ok {
			return "", fmt.Errorf("canned provider: no rules for section %d", section)
		}
		return out, nil
	}
	return "", fmt.Errorf("canned provider: unknown task %s", task)
}

func main() {
	color.Cyan("=== Gamebook Pipeline Simulation ===")

	sections := memory.NewSectionRepository()
	ctx := context.Background()
	for section, text := range rawSections {
		if err := sections.PutRaw(ctx, section, store.KindContent, text); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	quiet := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	cache := artifactcache.New(artifactcache.Options{})
	recorder := trace.NewRecorder(trace.DefaultRetention, memory.NewTraceRepository(), pubSub, quiet)

	settings := generation.Settings{Model: "canned"}
	pipeline := executor.NewPipeline(
		content.NewManager(cache, sections, cannedProvider{}, settings, quiet),
		rules.NewManager(cache, sections, cannedProvider{}, settings, quiet),
		decision.NewStage(nil, quiet),
		dice.NewSeededRoller(7),
		recorder,
		quiet,
		executor.Config{},
	)

	steps := []struct {
		section int
		input   string
	}{
		{1, "145"},
		{145, "draw your sword and fight"},
		{212, "resolve the combat"},
		{278, "test your luck"},
		{1, "999"}, // not a candidate, should be rejected
		{2, "1"},   // unknown section, content stage fails
	}

	for _, step := range steps {
		color.Yellow("\n> section %d, input %q", step.section, step.input)
		start := time.Now()
		state := pipeline.Process(ctx, step.section, step.input, "")
		elapsed := time.Since(start)

		switch {
		case state.Err != nil && state.Status == store.StatusRejected:
			color.Magenta("REJECTED (%v): %s", elapsed, state.Err.Message)
		case state.Err != nil:
			color.Red("FAILED (%v): [%s/%s] %s", elapsed, state.Err.Stage, state.Err.Kind, state.Err.Message)
		default:
			color.Green("RESOLVED (%v): next section %d", elapsed, *state.NextSection)
		}
	}

	color.Cyan("\n=== Decision Trace ===")
	for _, entry := range recorder.List(0, 0) {
		fmt.Printf("  #%d section=%d action=%q outcome=%s\n",
			entry.Seq, entry.Section, entry.Action, entry.Outcome)
	}

	os.Exit(0)
}
