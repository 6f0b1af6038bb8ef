package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

// ErrPlagiarismReportNotFound indicates the submission has not been analysed yet.
var ErrPlagiarismReportNotFound = errors.New("plagiarism report not found")

// PlagiarismConfig bounds the comparison and sets the flag threshold.
type PlagiarismConfig struct {
	Task            TaskSettings
	FlagThreshold   float64
	TargetMaxChars  int
	SiblingMaxChars int
	MaxComparisons  int
}

// PlagiarismService compares a submission with its siblings.
type PlagiarismService interface {
	Check(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionTargetRequest) (dto.PlagiarismReportResponse, error)
	GetReport(ctx context.Context, submissionID uint) (dto.PlagiarismReportResponse, error)
}

type plagiarismResult struct {
	SimilarityPercentage float64       `json:"similarity_percentage"`
	IsFlagged            bool          `json:"is_flagged"`
	MatchedSubmissions   []interface{} `json:"matched_submissions"`
	AnalysisDetails      string        `json:"analysis_details"`
}

type plagiarismService struct {
	submissions repository.SubmissionRepository
	reports     repository.PlagiarismReportRepository
	text        *SubmissionTextExtractor
	deps        AIDependencies
	config      PlagiarismConfig
}

// NewPlagiarismService constructs the service.
func NewPlagiarismService(submissions repository.SubmissionRepository, reports repository.PlagiarismReportRepository, text *SubmissionTextExtractor, deps AIDependencies, cfg PlagiarismConfig) PlagiarismService {
	if cfg.FlagThreshold == 0 {
		cfg.FlagThreshold = 40
	}
	if cfg.SiblingMaxChars == 0 {
		cfg.SiblingMaxChars = 500
	}
	if cfg.TargetMaxChars == 0 {
		cfg.TargetMaxChars = 4000
	}
	deps.Logger = deps.Logger.With().Str("component", "plagiarism_service").Logger()

	return &plagiarismService{
		submissions: submissions,
		reports:     reports,
		text:        text,
		deps:        deps,
		config:      cfg,
	}
}

func (s *plagiarismService) Check(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionTargetRequest) (dto.PlagiarismReportResponse, error) {
	ctx, run := pipeline.Start(ctx, pipeline.EndpointCheckPlagiarism, s.deps.Logger)
	defer run.End()

	if failure := run.Authorize(actor, pipeline.StaffRoles...); failure != nil {
		return dto.PlagiarismReportResponse{}, failure
	}

	run.Enter(pipeline.StageFetchingInput)
	if err := s.deps.Validator.Struct(payload); err != nil {
		return dto.PlagiarismReportResponse{}, invalidInput(run, err)
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		return dto.PlagiarismReportResponse{}, loadFailure(run, err, "Submission not found")
	}

	target, err := s.text.Extract(ctx, submission)
	if err != nil {
		return dto.PlagiarismReportResponse{}, textFailure(run, err)
	}

	siblings, err := s.submissions.ListSiblings(ctx, submission.AssignmentID, submission.ID, s.config.MaxComparisons)
	if err != nil {
		return dto.PlagiarismReportResponse{}, run.Fail(pipeline.KindInternal, pipeline.MessageInternal, err)
	}

	siblingTexts := make([]string, 0, len(siblings))
	siblingIDs := make([]uint, 0, len(siblings))
	for _, sibling := range siblings {
		text := s.text.Typed(sibling)
		if text == "" {
			continue
		}
		siblingTexts = append(siblingTexts, text)
		siblingIDs = append(siblingIDs, sibling.ID)
	}

	content, failure := callModel(ctx, run, s.deps.Gateway, prompt.Plagiarism(prompt.PlagiarismInput{
		Target:          target,
		Siblings:        siblingTexts,
		TargetMaxChars:  s.config.TargetMaxChars,
		SiblingMaxChars: s.config.SiblingMaxChars,
		FlagThreshold:   s.config.FlagThreshold,
	}), s.config.Task)
	if failure != nil {
		return dto.PlagiarismReportResponse{}, failure
	}

	var result plagiarismResult
	fellBack, failure := extract(run, content, prompt.PlagiarismSchema, &result)
	if failure != nil {
		return dto.PlagiarismReportResponse{}, failure
	}
	if fellBack {
		result = plagiarismResult{AnalysisDetails: content}
	}

	run.Enter(pipeline.StagePersisting)
	similarity := clamp(result.SimilarityPercentage, 0, 100)
	labels, matchedIDs := resolveMatches(result.MatchedSubmissions, siblingIDs)

	report := models.PlagiarismReport{
		SubmissionID:         submission.ID,
		SimilarityPercentage: similarity,
		IsFlagged:            similarity > s.config.FlagThreshold,
		MatchedSubmissions:   models.StringList(labels),
		MatchedSubmissionIDs: models.IDList(matchedIDs),
		AnalysisDetails:      strings.TrimSpace(result.AnalysisDetails),
		AnalyzedBy:           actor.UserID,
		AnalyzedAt:           utcNow(),
	}
	if err := s.reports.Upsert(ctx, &report); err != nil {
		return dto.PlagiarismReportResponse{}, run.Fail(pipeline.KindPersistence, "Failed to save plagiarism report", err)
	}

	eventPayload := map[string]interface{}{
		"submission_id":         report.SubmissionID,
		"similarity_percentage": report.SimilarityPercentage,
		"is_flagged":            report.IsFlagged,
		"analyzed_by":           report.AnalyzedBy,
	}
	s.deps.announce(ctx, actor, events.TypePlagiarismChecked, "submission", &report.SubmissionID, eventPayload)
	if report.IsFlagged {
		s.deps.announce(ctx, actor, events.TypePlagiarismFlagged, "submission", &report.SubmissionID, eventPayload)
	}

	run.Succeed()
	return dto.NewPlagiarismReportResponse(report), nil
}

func (s *plagiarismService) GetReport(ctx context.Context, submissionID uint) (dto.PlagiarismReportResponse, error) {
	report, err := s.reports.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlagiarismReportResponse{}, ErrPlagiarismReportNotFound
		}
		return dto.PlagiarismReportResponse{}, err
	}
	return dto.NewPlagiarismReportResponse(report), nil
}

var labelNumberPattern = regexp.MustCompile(`\d+`)

// resolveMatches normalises the model's sibling references ("Submission 2", 2) into display
// labels and the real submission ids behind them. References outside the compared set are dropped.
func resolveMatches(references []interface{}, siblingIDs []uint) ([]string, []uint) {
	labels := make([]string, 0, len(references))
	ids := make([]uint, 0, len(references))
	seen := make(map[int]struct{}, len(references))

	for _, reference := range references {
		ordinal, ok := referenceOrdinal(reference)
		if !ok || ordinal < 1 || ordinal > len(siblingIDs) {
			continue
		}
		if _, dup := seen[ordinal]; dup {
			continue
		}
		seen[ordinal] = struct{}{}
		labels = append(labels, prompt.SiblingLabel(ordinal-1))
		ids = append(ids, siblingIDs[ordinal-1])
	}
	return labels, ids
}

func referenceOrdinal(reference interface{}) (int, bool) {
	switch v := reference.(type) {
	case float64:
		return int(v), v == float64(int(v))
	case string:
		match := labelNumberPattern.FindString(v)
		if match == "" {
			return 0, false
		}
		n, err := strconv.Atoi(match)
		return n, err == nil
	default:
		return 0, false
	}
}

func textFailure(run *pipeline.Run, err error) *pipeline.Error {
	switch {
	case errors.Is(err, ErrPDFUnsupported):
		return run.Fail(pipeline.KindInvalidInput, "PDF files are not supported for AI evaluation", err)
	case errors.Is(err, ErrUnsupportedFile):
		return run.Fail(pipeline.KindInvalidInput, "Unsupported file type. Please submit text content", err)
	case errors.Is(err, ErrFileURLNotAllowed):
		return run.Fail(pipeline.KindInvalidInput, "Submission file location is not allowed", err)
	case errors.Is(err, ErrFileTooLarge):
		return run.Fail(pipeline.KindInvalidInput, "Submission file is too large to analyze", err)
	case errors.Is(err, ErrFileUnavailable):
		return run.Fail(pipeline.KindInvalidInput, "Could not read submission file", err)
	case errors.Is(err, ErrNoTextContent):
		return run.Fail(pipeline.KindInvalidInput, "No text content found in submission", err)
	default:
		return run.Fail(pipeline.KindInternal, pipeline.MessageInternal, fmt.Errorf("extract submission text: %w", err))
	}
}
