package models

import "time"

// Grade is a term grade recorded by faculty for a student in a subject.
type Grade struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;index" json:"student_id"`
	Subject     string    `gorm:"size:128;not null" json:"subject"`
	Semester    string    `gorm:"size:64;not null" json:"semester"`
	GradeLetter string    `gorm:"size:4;not null" json:"grade_letter"`
	GradePoints float64   `gorm:"not null" json:"grade_points"`
	Credits     int       `gorm:"not null;default:0" json:"credits"`
	Remarks     string    `gorm:"type:text" json:"remarks"`
	CreatedBy   uint      `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
