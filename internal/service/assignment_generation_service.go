package service

import (
	"context"
	"strings"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
)

// AssignmentGenerationConfig holds assignment drafting defaults.
type AssignmentGenerationConfig struct {
	Task               TaskSettings
	DefaultAssignments int
}

// AssignmentGenerationService drafts assignments from a syllabus. Drafts are not stored.
type AssignmentGenerationService interface {
	Generate(ctx context.Context, actor pipeline.Actor, payload dto.GenerateAssignmentsRequest) ([]dto.AssignmentDraft, error)
}

type assignmentGenerationService struct {
	deps   AIDependencies
	config AssignmentGenerationConfig
}

// NewAssignmentGenerationService constructs the service.
func NewAssignmentGenerationService(deps AIDependencies, cfg AssignmentGenerationConfig) AssignmentGenerationService {
	if cfg.DefaultAssignments == 0 {
		cfg.DefaultAssignments = 3
	}
	deps.Logger = deps.Logger.With().Str("component", "assignment_generation_service").Logger()
	return &assignmentGenerationService{deps: deps, config: cfg}
}

func (s *assignmentGenerationService) Generate(ctx context.Context, actor pipeline.Actor, payload dto.GenerateAssignmentsRequest) ([]dto.AssignmentDraft, error) {
	ctx, run := pipeline.Start(ctx, pipeline.EndpointGenerateAssignments, s.deps.Logger)
	defer run.End()

	if failure := run.Authorize(actor, pipeline.StaffRoles...); failure != nil {
		return nil, failure
	}

	run.Enter(pipeline.StageFetchingInput)
	if err := s.deps.Validator.Struct(payload); err != nil {
		return nil, invalidInput(run, err)
	}

	count := payload.NumberOfAssignments
	if count == 0 {
		count = s.config.DefaultAssignments
	}

	content, failure := callModel(ctx, run, s.deps.Gateway, prompt.Assignments(prompt.AssignmentsInput{
		Syllabus: payload.Syllabus,
		Subject:  strings.TrimSpace(payload.Subject),
		Count:    count,
	}), s.config.Task)
	if failure != nil {
		return nil, failure
	}

	var drafts []dto.AssignmentDraft
	if _, failure := extract(run, content, prompt.AssignmentsSchema, &drafts); failure != nil {
		return nil, failure
	}

	for i := range drafts {
		drafts[i].Title = strings.TrimSpace(drafts[i].Title)
		drafts[i].Description = strings.TrimSpace(drafts[i].Description)
		if drafts[i].MaxScore <= 0 {
			drafts[i].MaxScore = 100
		}
	}

	s.deps.announce(ctx, actor, events.TypeAssignmentsDrafted, "assignment_draft", nil, map[string]interface{}{
		"subject":     strings.TrimSpace(payload.Subject),
		"requested":   count,
		"draft_count": len(drafts),
	})

	run.Succeed()
	return drafts, nil
}
