package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

// ErrEvaluationNotFound indicates the submission has not been evaluated yet.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// EvaluationConfig tunes submission evaluation.
type EvaluationConfig struct {
	Task TaskSettings
}

// EvaluationService grades submissions with the model.
type EvaluationService interface {
	Evaluate(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionTargetRequest) (dto.EvaluationResponse, error)
	GetEvaluation(ctx context.Context, submissionID uint) (dto.EvaluationResponse, error)
}

type evaluationResult struct {
	FollowsInstructions bool     `json:"followsInstructions"`
	InstructionScore    float64  `json:"instructionScore"`
	AnswerCorrectness   float64  `json:"answerCorrectness"`
	Strengths           []string `json:"strengths"`
	Improvements        []string `json:"improvements"`
	DetailedFeedback    string   `json:"detailedFeedback"`
	SuggestedScore      float64  `json:"suggestedScore"`
}

type evaluationService struct {
	submissions repository.SubmissionRepository
	evaluations repository.SubmissionEvaluationRepository
	text        *SubmissionTextExtractor
	deps        AIDependencies
	config      EvaluationConfig
}

// NewEvaluationService constructs the service.
func NewEvaluationService(submissions repository.SubmissionRepository, evaluations repository.SubmissionEvaluationRepository, text *SubmissionTextExtractor, deps AIDependencies, cfg EvaluationConfig) EvaluationService {
	deps.Logger = deps.Logger.With().Str("component", "evaluation_service").Logger()
	return &evaluationService{
		submissions: submissions,
		evaluations: evaluations,
		text:        text,
		deps:        deps,
		config:      cfg,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionTargetRequest) (dto.EvaluationResponse, error) {
	ctx, run := pipeline.Start(ctx, pipeline.EndpointEvaluateSubmission, s.deps.Logger)
	defer run.End()

	if failure := run.Authorize(actor, pipeline.StaffRoles...); failure != nil {
		return dto.EvaluationResponse{}, failure
	}

	run.Enter(pipeline.StageFetchingInput)
	if err := s.deps.Validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, invalidInput(run, err)
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		return dto.EvaluationResponse{}, loadFailure(run, err, "Submission not found")
	}
	if submission.Assignment == nil {
		return dto.EvaluationResponse{}, run.Fail(pipeline.KindNotFound, "Assignment not found", nil)
	}
	assignment := *submission.Assignment

	studentText, err := s.text.Extract(ctx, submission)
	if err != nil {
		return dto.EvaluationResponse{}, textFailure(run, err)
	}

	maxScore := assignment.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	content, failure := callModel(ctx, run, s.deps.Gateway, prompt.Evaluation(prompt.EvaluationInput{
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		Subject:               assignment.Subject,
		MaxScore:              maxScore,
		StudentText:           studentText,
	}), s.config.Task)
	if failure != nil {
		return dto.EvaluationResponse{}, failure
	}

	var result evaluationResult
	if _, failure := extract(run, content, prompt.EvaluationSchema, &result); failure != nil {
		return dto.EvaluationResponse{}, failure
	}

	run.Enter(pipeline.StagePersisting)
	evaluation := models.SubmissionEvaluation{
		SubmissionID:        submission.ID,
		FollowsInstructions: result.FollowsInstructions,
		InstructionScore:    clamp(result.InstructionScore, 0, 100),
		AnswerCorrectness:   clamp(result.AnswerCorrectness, 0, 100),
		Strengths:           models.StringList(trimAll(result.Strengths)),
		Improvements:        models.StringList(trimAll(result.Improvements)),
		DetailedFeedback:    strings.TrimSpace(result.DetailedFeedback),
		SuggestedScore:      clamp(result.SuggestedScore, 0, maxScore),
		EvaluatedBy:         actor.UserID,
		EvaluatedAt:         utcNow(),
	}
	if err := s.evaluations.Upsert(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, run.Fail(pipeline.KindPersistence, "Failed to save evaluation", err)
	}

	s.deps.announce(ctx, actor, events.TypeEvaluationCompleted, "submission", &evaluation.SubmissionID, map[string]interface{}{
		"submission_id":   evaluation.SubmissionID,
		"student_id":      submission.StudentID,
		"suggested_score": evaluation.SuggestedScore,
		"evaluated_by":    evaluation.EvaluatedBy,
	})

	run.Succeed()
	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) GetEvaluation(ctx context.Context, submissionID uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}
	return dto.NewEvaluationResponse(evaluation), nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
