package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionEvaluation stores the latest AI evaluation of a submission. One row per submission.
type SubmissionEvaluation struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	SubmissionID        uint           `gorm:"not null;uniqueIndex" json:"submission_id"`
	FollowsInstructions bool           `gorm:"not null" json:"follows_instructions"`
	InstructionScore    float64        `gorm:"not null" json:"instruction_score"`
	AnswerCorrectness   float64        `gorm:"not null" json:"answer_correctness"`
	Strengths           datatypes.JSON `json:"strengths"`
	Improvements        datatypes.JSON `json:"improvements"`
	DetailedFeedback    string         `gorm:"type:text" json:"detailed_feedback"`
	SuggestedScore      float64        `gorm:"not null" json:"suggested_score"`
	EvaluatedBy         uint           `gorm:"not null" json:"evaluated_by"`
	EvaluatedAt         time.Time      `gorm:"not null" json:"evaluated_at"`
	Submission          Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
