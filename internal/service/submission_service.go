package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionForbidden indicates the caller may not view the submission.
	ErrSubmissionForbidden = errors.New("forbidden")
	// ErrSubmissionContentRequired indicates neither typed content nor a file URL was sent.
	ErrSubmissionContentRequired = errors.New("typed_content or file_url is required")
	// ErrScoreOutOfRange indicates a grade above the assignment's max score.
	ErrScoreOutOfRange = errors.New("score exceeds assignment max score")
)

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor pipeline.Actor, id uint) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	files       FileURLPolicy
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, files FileURLPolicy, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		files:       files,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, actor pipeline.Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	typed := trimmedOrNil(payload.TypedContent)
	fileURL := trimmedOrNil(payload.FileURL)
	if typed == nil && fileURL == nil {
		return dto.SubmissionResponse{}, ErrSubmissionContentRequired
	}
	if fileURL != nil {
		if err := s.files.Check(*fileURL); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now().UTC()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.UserID,
		TypedContent: typed,
		FileURL:      fileURL,
		SubmittedAt:  now,
		IsLate:       assignment.IsPastDue(now),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("create submission: %w", err)
	}
	submission.Assignment = &assignment

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Bool("is_late", submission.IsLate).
		Msg("submission received")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, actor pipeline.Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !actor.HasRole(pipeline.StaffRoles...) && submission.StudentID != actor.UserID {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Grade(ctx context.Context, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment != nil && submission.Assignment.MaxScore > 0 && *payload.Score > submission.Assignment.MaxScore {
		return dto.SubmissionResponse{}, ErrScoreOutOfRange
	}

	feedback := trimmedOrNil(payload.Feedback)
	if err := s.submissions.UpdateGrade(ctx, id, *payload.Score, feedback); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Score = payload.Score
	submission.Feedback = feedback
	return dto.NewSubmissionResponse(submission), nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
