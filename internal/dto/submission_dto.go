package dto

import (
	"time"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// SubmissionCreateRequest is sent by a student. At least one of TypedContent and FileURL is required.
type SubmissionCreateRequest struct {
	AssignmentID uint    `json:"assignment_id" validate:"required,gt=0"`
	TypedContent *string `json:"typed_content" validate:"omitempty,max=100000"`
	FileURL      *string `json:"file_url" validate:"omitempty,url,max=512"`
}

// SubmissionGradeRequest records a faculty grade.
type SubmissionGradeRequest struct {
	Score    *float64 `json:"score" validate:"required,gte=0"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=10000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint            `json:"id"`
	AssignmentID uint            `json:"assignment_id"`
	StudentID    uint            `json:"student_id"`
	TypedContent *string         `json:"typed_content"`
	FileURL      *string         `json:"file_url"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Score        *float64        `json:"score"`
	Feedback     *string         `json:"feedback"`
	IsLate       bool            `json:"is_late"`
	Assignment   *AssignmentLite `json:"assignment,omitempty"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Subject  string    `json:"subject"`
	DueDate  time.Time `json:"due_date"`
	MaxScore float64   `json:"max_score"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		TypedContent: model.TypedContent,
		FileURL:      model.FileURL,
		SubmittedAt:  model.SubmittedAt,
		Score:        model.Score,
		Feedback:     model.Feedback,
		IsLate:       model.IsLate,
	}

	if model.Assignment != nil {
		response.Assignment = &AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			Subject:  model.Assignment.Subject,
			DueDate:  model.Assignment.DueDate,
			MaxScore: model.Assignment.MaxScore,
		}
	}

	return response
}
