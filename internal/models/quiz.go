package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is a multiple-choice quiz. Generated quizzes start unpublished.
type Quiz struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Topic            string         `gorm:"size:255;not null" json:"topic"`
	Subject          string         `gorm:"size:128;not null" json:"subject"`
	Description      *string        `gorm:"type:text" json:"description"`
	TimeLimitMinutes int            `gorm:"not null" json:"time_limit_minutes"`
	IsPublished      bool           `gorm:"not null;default:false" json:"is_published"`
	CreatedBy        uint           `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	Questions        []QuizQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// QuizQuestion is a single four-option question belonging to a quiz.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"not null;index" json:"quiz_id"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSON `gorm:"not null" json:"options"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	Points        int            `gorm:"not null;default:1" json:"points"`
	QuestionOrder int            `gorm:"not null" json:"question_order"`
}
