package models

import (
	"strings"
	"time"
)

// Submission represents a student's answer to an assignment, either typed or uploaded.
type Submission struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	AssignmentID uint        `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint        `gorm:"not null;index" json:"student_id"`
	TypedContent *string     `gorm:"type:text" json:"typed_content"`
	FileURL      *string     `gorm:"size:512" json:"file_url"`
	SubmittedAt  time.Time   `gorm:"not null" json:"submitted_at"`
	Score        *float64    `json:"score"`
	Feedback     *string     `gorm:"type:text" json:"feedback"`
	IsLate       bool        `gorm:"not null;default:false" json:"is_late"`
	Assignment   *Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment,omitempty"`
}

// IsGraded reports whether faculty have recorded a score.
func (s Submission) IsGraded() bool {
	return s.Score != nil
}

// Text returns the typed answer, or an empty string when none was provided.
func (s Submission) Text() string {
	if s.TypedContent == nil {
		return ""
	}
	return strings.TrimSpace(*s.TypedContent)
}

// HasFile reports whether an uploaded file accompanies the submission.
func (s Submission) HasFile() bool {
	return s.FileURL != nil && strings.TrimSpace(*s.FileURL) != ""
}
