package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// Models lists every table the service reads or writes, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.UserRole{},
		&models.Assignment{},
		&models.Submission{},
		&models.SubmissionEvaluation{},
		&models.PlagiarismReport{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.Grade{},
		&models.ActivityLog{},
	}
}

// Migrate creates or updates the schema, including the unique submission_id indexes
// that evaluation and plagiarism upserts depend on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
