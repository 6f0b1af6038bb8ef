package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// PlagiarismReportRepository stores the one-per-submission similarity report.
type PlagiarismReportRepository interface {
	Upsert(ctx context.Context, report *models.PlagiarismReport) error
	GetBySubmission(ctx context.Context, submissionID uint) (models.PlagiarismReport, error)
}

type plagiarismReportRepository struct {
	db *gorm.DB
}

// NewPlagiarismReportRepository instantiates the repository.
func NewPlagiarismReportRepository(db *gorm.DB) PlagiarismReportRepository {
	return &plagiarismReportRepository{db: db}
}

func (r *plagiarismReportRepository) Upsert(ctx context.Context, report *models.PlagiarismReport) error {
	report.ID = 0
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"similarity_percentage", "is_flagged", "matched_submissions",
				"matched_submission_ids", "analysis_details", "analyzed_by", "analyzed_at",
			}),
		}).
		Create(report).Error
	if err != nil {
		return err
	}

	stored, err := r.GetBySubmission(ctx, report.SubmissionID)
	if err != nil {
		return err
	}
	*report = stored
	return nil
}

func (r *plagiarismReportRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.PlagiarismReport, error) {
	var report models.PlagiarismReport
	if err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&report).Error; err != nil {
		return models.PlagiarismReport{}, err
	}
	return report, nil
}
