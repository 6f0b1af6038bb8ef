package dto

import (
	"time"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// GenerateQuizRequest asks the model for a multiple-choice quiz.
// NumberOfQuestions is forwarded as given; zero falls back to the configured default.
type GenerateQuizRequest struct {
	Topic             string `json:"topic" validate:"required,max=255"`
	Subject           string `json:"subject" validate:"required,max=128"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

// GenerateAssignmentsRequest asks the model to draft assignments from a syllabus.
type GenerateAssignmentsRequest struct {
	Syllabus            string `json:"syllabus" validate:"required"`
	Subject             string `json:"subject" validate:"required,max=128"`
	NumberOfAssignments int    `json:"numberOfAssignments"`
}

// SubmissionTargetRequest names the submission an AI check runs against.
type SubmissionTargetRequest struct {
	SubmissionID uint `json:"submissionId" validate:"required,gt=0"`
}

// QuizQuestionResponse serializes one generated question.
type QuizQuestionResponse struct {
	ID            uint     `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points"`
	QuestionOrder int      `json:"question_order"`
}

// QuizResponse serializes a quiz and, when loaded, its ordered questions.
type QuizResponse struct {
	ID               uint                   `json:"id"`
	Title            string                 `json:"title"`
	Topic            string                 `json:"topic"`
	Subject          string                 `json:"subject"`
	Description      *string                `json:"description"`
	TimeLimitMinutes int                    `json:"time_limit_minutes"`
	IsPublished      bool                   `json:"is_published"`
	CreatedBy        uint                   `json:"created_by"`
	CreatedAt        time.Time              `json:"created_at"`
	Questions        []QuizQuestionResponse `json:"questions,omitempty"`
}

// GenerateQuizResponse is returned by quiz generation.
type GenerateQuizResponse struct {
	Quiz      QuizResponse           `json:"quiz"`
	Questions []QuizQuestionResponse `json:"questions"`
}

// AssignmentDraft is a generated, unsaved assignment.
type AssignmentDraft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxScore    float64 `json:"max_score"`
}

// PlagiarismReportResponse serializes a stored plagiarism report.
type PlagiarismReportResponse struct {
	ID                   uint      `json:"id"`
	SubmissionID         uint      `json:"submission_id"`
	SimilarityPercentage float64   `json:"similarity_percentage"`
	IsFlagged            bool      `json:"is_flagged"`
	MatchedSubmissions   []string  `json:"matched_submissions"`
	MatchedSubmissionIDs []uint    `json:"matched_submission_ids"`
	AnalysisDetails      string    `json:"analysis_details"`
	AnalyzedBy           uint      `json:"analyzed_by"`
	AnalyzedAt           time.Time `json:"analyzed_at"`
}

// EvaluationResponse serializes a stored submission evaluation.
type EvaluationResponse struct {
	ID                  uint      `json:"id"`
	SubmissionID        uint      `json:"submission_id"`
	FollowsInstructions bool      `json:"follows_instructions"`
	InstructionScore    float64   `json:"instruction_score"`
	AnswerCorrectness   float64   `json:"answer_correctness"`
	Strengths           []string  `json:"strengths"`
	Improvements        []string  `json:"improvements"`
	DetailedFeedback    string    `json:"detailed_feedback"`
	SuggestedScore      float64   `json:"suggested_score"`
	EvaluatedBy         uint      `json:"evaluated_by"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
}

// PerformanceGap is a weak area identified for the student.
type PerformanceGap struct {
	Subject  string `json:"subject"`
	Issue    string `json:"issue"`
	Severity string `json:"severity,omitempty"`
}

// Recommendation is a suggested next step.
type Recommendation struct {
	Subject     string   `json:"subject,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Resources   []string `json:"resources,omitempty"`
}

// SubjectSummary aggregates a student's results in one subject.
type SubjectSummary struct {
	Subject         string   `json:"subject"`
	AverageScore    float64  `json:"averageScore"`
	AssignmentCount int      `json:"assignmentCount"`
	RecentGrades    []string `json:"recentGrades"`
}

// PerformanceSummary is the data the learning path was derived from.
type PerformanceSummary struct {
	Subjects          []SubjectSummary `json:"subjects"`
	GPA               float64          `json:"gpa"`
	TotalCredits      int              `json:"totalCredits"`
	GradedAssignments int              `json:"gradedAssignments"`
}

// LearningPathResponse carries the recommendations, or only Message when there is no data yet.
type LearningPathResponse struct {
	PerformanceGaps    []PerformanceGap    `json:"performanceGaps"`
	Recommendations    []Recommendation    `json:"recommendations"`
	Encouragement      string              `json:"encouragement,omitempty"`
	PerformanceSummary *PerformanceSummary `json:"performanceSummary,omitempty"`
	Message            string              `json:"message,omitempty"`
}

// NewQuizQuestionResponse converts a question model into a DTO.
func NewQuizQuestionResponse(model models.QuizQuestion) QuizQuestionResponse {
	return QuizQuestionResponse{
		ID:            model.ID,
		Question:      model.Question,
		Options:       models.DecodeStrings(model.Options),
		CorrectAnswer: model.CorrectAnswer,
		Points:        model.Points,
		QuestionOrder: model.QuestionOrder,
	}
}

// NewQuizQuestionResponseSlice converts questions preserving order.
func NewQuizQuestionResponseSlice(items []models.QuizQuestion) []QuizQuestionResponse {
	responses := make([]QuizQuestionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewQuizQuestionResponse(item))
	}
	return responses
}

// NewQuizResponse converts a quiz model into a DTO.
func NewQuizResponse(model models.Quiz) QuizResponse {
	response := QuizResponse{
		ID:               model.ID,
		Title:            model.Title,
		Topic:            model.Topic,
		Subject:          model.Subject,
		Description:      model.Description,
		TimeLimitMinutes: model.TimeLimitMinutes,
		IsPublished:      model.IsPublished,
		CreatedBy:        model.CreatedBy,
		CreatedAt:        model.CreatedAt,
	}
	if len(model.Questions) > 0 {
		response.Questions = NewQuizQuestionResponseSlice(model.Questions)
	}
	return response
}

// NewPlagiarismReportResponse converts a report model into a DTO.
func NewPlagiarismReportResponse(model models.PlagiarismReport) PlagiarismReportResponse {
	return PlagiarismReportResponse{
		ID:                   model.ID,
		SubmissionID:         model.SubmissionID,
		SimilarityPercentage: model.SimilarityPercentage,
		IsFlagged:            model.IsFlagged,
		MatchedSubmissions:   models.DecodeStrings(model.MatchedSubmissions),
		MatchedSubmissionIDs: models.DecodeIDs(model.MatchedSubmissionIDs),
		AnalysisDetails:      model.AnalysisDetails,
		AnalyzedBy:           model.AnalyzedBy,
		AnalyzedAt:           model.AnalyzedAt,
	}
}

// NewEvaluationResponse converts an evaluation model into a DTO.
func NewEvaluationResponse(model models.SubmissionEvaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:                  model.ID,
		SubmissionID:        model.SubmissionID,
		FollowsInstructions: model.FollowsInstructions,
		InstructionScore:    model.InstructionScore,
		AnswerCorrectness:   model.AnswerCorrectness,
		Strengths:           models.DecodeStrings(model.Strengths),
		Improvements:        models.DecodeStrings(model.Improvements),
		DetailedFeedback:    model.DetailedFeedback,
		SuggestedScore:      model.SuggestedScore,
		EvaluatedBy:         model.EvaluatedBy,
		EvaluatedAt:         model.EvaluatedAt,
	}
}
