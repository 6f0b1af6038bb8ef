package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlagiarismReport stores the latest similarity analysis of a submission. One row per submission.
type PlagiarismReport struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	SubmissionID         uint           `gorm:"not null;uniqueIndex" json:"submission_id"`
	SimilarityPercentage float64        `gorm:"not null" json:"similarity_percentage"`
	IsFlagged            bool           `gorm:"not null" json:"is_flagged"`
	MatchedSubmissions   datatypes.JSON `json:"matched_submissions"`
	MatchedSubmissionIDs datatypes.JSON `json:"matched_submission_ids"`
	AnalysisDetails      string         `gorm:"type:text" json:"analysis_details"`
	AnalyzedBy           uint           `gorm:"not null" json:"analyzed_by"`
	AnalyzedAt           time.Time      `gorm:"not null" json:"analyzed_at"`
	Submission           Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
