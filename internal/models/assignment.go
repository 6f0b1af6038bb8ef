package models

import "time"

// Assignment represents coursework published by faculty.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Subject     string       `gorm:"size:128;not null;index" json:"subject"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	MaxScore    float64      `gorm:"not null;default:100" json:"max_score"`
	CreatedBy   uint         `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Submissions []Submission `json:"submissions,omitempty"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
