package service

import (
	"context"

	"gamebook-engine/internal/dto"
	"gamebook-engine/pkg/gamebook/content"
	"gamebook-engine/pkg/gamebook/executor"
	"gamebook-engine/pkg/gamebook/trace"
	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/store"
)

// IGameService exposes the pipeline to the transport layer.
type IGameService interface {
	ProcessSection(ctx context.Context, req *dto.ProcessSectionRequest) *dto.GameStateResponse
	GetContent(ctx context.Context, section int) (*dto.ContentResponse, error)
	GetTrace(limit int, sinceSeq uint64) []dto.TraceEntryResponse
}

type gameService struct {
	pipeline   *executor.Pipeline
	contentMgr *content.Manager
	recorder   *trace.Recorder
}

func NewGameService(pipeline *executor.Pipeline, contentMgr *content.Manager, recorder *trace.Recorder) IGameService {
	return &gameService{
		pipeline:   pipeline,
		contentMgr: contentMgr,
		recorder:   recorder,
	}
}

func (s *gameService) ProcessSection(ctx context.Context, req *dto.ProcessSectionRequest) *dto.GameStateResponse {
	var opts []executor.ProcessOption
	if req.Model != "" || req.Temperature != nil {
		opts = append(opts, executor.WithGenerationOverride(generation.Settings{
			Model:       req.Model,
			Temperature: req.Temperature,
		}))
	}

	state := s.pipeline.Process(ctx, req.Section, req.PlayerInput, req.RawOverride, opts...)
	return toGameStateResponse(state)
}

func (s *gameService) GetContent(ctx context.Context, section int) (*dto.ContentResponse, error) {
	artifact, err := s.contentMgr.GetContent(ctx, section, "", nil)
	if err != nil {
		return nil, err
	}
	return &dto.ContentResponse{
		Section:    artifact.Section,
		Body:       artifact.Body,
		Origin:     string(artifact.Origin),
		ProducedAt: artifact.ProducedAt,
	}, nil
}

func (s *gameService) GetTrace(limit int, sinceSeq uint64) []dto.TraceEntryResponse {
	entries := s.recorder.List(limit, sinceSeq)
	out := make([]dto.TraceEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.TraceEntryResponse{
			Seq:       e.Seq,
			Section:   e.Section,
			Action:    e.Action,
			Outcome:   e.Outcome,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func toGameStateResponse(state *store.GameState) *dto.GameStateResponse {
	resp := &dto.GameStateResponse{
		Section:            state.Section,
		PlayerInput:        state.PlayerInput,
		NextSection:        state.NextSection,
		NeedsRandomOutcome: state.NeedsRandomOutcome,
		OutcomeKind:        string(state.OutcomeKind),
		Status:             string(state.Status),
		LastUpdate:         state.LastUpdate,
	}
	if state.Err != nil {
		resp.Error = &dto.GameError{
			Kind:    string(state.Err.Kind),
			Stage:   string(state.Err.Stage),
			Message: state.Err.Error(),
		}
	}
	return resp
}
