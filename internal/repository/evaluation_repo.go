package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// SubmissionEvaluationRepository stores the one-per-submission AI evaluation.
type SubmissionEvaluationRepository interface {
	// Upsert inserts the evaluation or overwrites the existing row for the same submission.
	Upsert(ctx context.Context, evaluation *models.SubmissionEvaluation) error
	GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionEvaluation, error)
}

type submissionEvaluationRepository struct {
	db *gorm.DB
}

// NewSubmissionEvaluationRepository instantiates the repository.
func NewSubmissionEvaluationRepository(db *gorm.DB) SubmissionEvaluationRepository {
	return &submissionEvaluationRepository{db: db}
}

func (r *submissionEvaluationRepository) Upsert(ctx context.Context, evaluation *models.SubmissionEvaluation) error {
	evaluation.ID = 0
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"follows_instructions", "instruction_score", "answer_correctness",
				"strengths", "improvements", "detailed_feedback", "suggested_score",
				"evaluated_by", "evaluated_at",
			}),
		}).
		Create(evaluation).Error
	if err != nil {
		return err
	}

	stored, err := r.GetBySubmission(ctx, evaluation.SubmissionID)
	if err != nil {
		return err
	}
	*evaluation = stored
	return nil
}

func (r *submissionEvaluationRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionEvaluation, error) {
	var evaluation models.SubmissionEvaluation
	if err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&evaluation).Error; err != nil {
		return models.SubmissionEvaluation{}, err
	}
	return evaluation, nil
}
