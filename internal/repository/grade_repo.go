package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// GradeRepository reads term grades. The pipeline never writes them.
type GradeRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Grade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}
