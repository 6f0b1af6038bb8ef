package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gema-academic-api/internal/database"
	"github.com/noah-isme/gema-academic-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedAssignment(t *testing.T, db *gorm.DB, maxScore float64) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		Title:       "Cell Biology Essay",
		Description: "Explain the parts of a cell",
		Subject:     "Biology",
		DueDate:     time.Now().Add(48 * time.Hour),
		MaxScore:    maxScore,
		CreatedBy:   1,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func seedSubmission(t *testing.T, db *gorm.DB, assignmentID, studentID uint, content string, submittedAt time.Time) models.Submission {
	t.Helper()
	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		TypedContent: &content,
		SubmittedAt:  submittedAt,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestEvaluationUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionEvaluationRepository(db)
	ctx := context.Background()

	assignment := seedAssignment(t, db, 100)
	submission := seedSubmission(t, db, assignment.ID, 10, "answer", time.Now())

	first := models.SubmissionEvaluation{
		SubmissionID:        submission.ID,
		FollowsInstructions: true,
		InstructionScore:    60,
		AnswerCorrectness:   55,
		Strengths:           models.StringList([]string{"clear"}),
		Improvements:        models.StringList(nil),
		DetailedFeedback:    "first pass",
		SuggestedScore:      58,
		EvaluatedBy:         1,
		EvaluatedAt:         time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &first))
	require.NotZero(t, first.ID)

	second := models.SubmissionEvaluation{
		SubmissionID:        submission.ID,
		FollowsInstructions: false,
		InstructionScore:    90,
		AnswerCorrectness:   85,
		Strengths:           models.StringList([]string{"thorough"}),
		Improvements:        models.StringList([]string{"cite sources"}),
		DetailedFeedback:    "second pass",
		SuggestedScore:      88,
		EvaluatedBy:         2,
		EvaluatedAt:         time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &second))

	var count int64
	require.NoError(t, db.Model(&models.SubmissionEvaluation{}).Where("submission_id = ?", submission.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetBySubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.False(t, stored.FollowsInstructions)
	require.InDelta(t, 88.0, stored.SuggestedScore, 0.001)
	require.Equal(t, "second pass", stored.DetailedFeedback)
	require.Equal(t, uint(2), stored.EvaluatedBy)
	require.Equal(t, []string{"cite sources"}, models.DecodeStrings(stored.Improvements))
}

func TestPlagiarismUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlagiarismReportRepository(db)
	ctx := context.Background()

	assignment := seedAssignment(t, db, 100)
	submission := seedSubmission(t, db, assignment.ID, 10, "answer", time.Now())

	report := models.PlagiarismReport{
		SubmissionID:         submission.ID,
		SimilarityPercentage: 70,
		IsFlagged:            true,
		MatchedSubmissions:   models.StringList([]string{"Submission 1"}),
		MatchedSubmissionIDs: models.IDList([]uint{99}),
		AnalysisDetails:      "copied intro",
		AnalyzedBy:           1,
		AnalyzedAt:           time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &report))

	again := models.PlagiarismReport{
		SubmissionID:         submission.ID,
		SimilarityPercentage: 5,
		MatchedSubmissions:   models.StringList(nil),
		MatchedSubmissionIDs: models.IDList(nil),
		AnalysisDetails:      "original",
		AnalyzedBy:           3,
		AnalyzedAt:           time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &again))

	var count int64
	require.NoError(t, db.Model(&models.PlagiarismReport{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.False(t, again.IsFlagged)
	require.Empty(t, models.DecodeIDs(again.MatchedSubmissionIDs))
	require.Equal(t, uint(3), again.AnalyzedBy)
}

func TestQuizCreateWithQuestionsOrdersQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()

	quiz := models.Quiz{Title: "Photosynthesis Quiz", Topic: "Photosynthesis", Subject: "Biology", TimeLimitMinutes: 30, CreatedBy: 4}
	questions := []models.QuizQuestion{
		{Question: "B?", Options: models.StringList([]string{"a", "b", "c", "d"}), CorrectAnswer: "b", Points: 1, QuestionOrder: 1},
		{Question: "A?", Options: models.StringList([]string{"a", "b", "c", "d"}), CorrectAnswer: "a", Points: 2, QuestionOrder: 0},
	}
	require.NoError(t, repo.CreateWithQuestions(ctx, &quiz, questions))
	require.NotZero(t, quiz.ID)

	stored, err := repo.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.False(t, stored.IsPublished)
	require.Len(t, stored.Questions, 2)
	require.Equal(t, "A?", stored.Questions[0].Question)
	require.Equal(t, "B?", stored.Questions[1].Question)
}

func TestQuizCreateRollsBackWhenQuestionsFail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	quiz := models.Quiz{Title: "Broken Quiz", Topic: "Broken", Subject: "Biology", TimeLimitMinutes: 30, CreatedBy: 4}
	questions := []models.QuizQuestion{{Question: "Q?", CorrectAnswer: "a", QuestionOrder: 0}}

	require.Error(t, repo.CreateWithQuestions(context.Background(), &quiz, questions))

	var count int64
	require.NoError(t, db.Model(&models.Quiz{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmissionSiblingsAndGraded(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	assignment := seedAssignment(t, db, 100)
	other := seedAssignment(t, db, 50)
	base := time.Now().Add(-time.Hour)

	target := seedSubmission(t, db, assignment.ID, 1, "target", base)
	first := seedSubmission(t, db, assignment.ID, 2, "first", base.Add(time.Minute))
	second := seedSubmission(t, db, assignment.ID, 3, "second", base.Add(2*time.Minute))
	seedSubmission(t, db, other.ID, 4, "elsewhere", base)

	siblings, err := repo.ListSiblings(ctx, assignment.ID, target.ID, 0)
	require.NoError(t, err)
	require.Len(t, siblings, 2)
	require.Equal(t, first.ID, siblings[0].ID)
	require.Equal(t, second.ID, siblings[1].ID)

	limited, err := repo.ListSiblings(ctx, assignment.ID, target.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	feedback := "good"
	require.NoError(t, repo.UpdateGrade(ctx, target.ID, 87, &feedback))
	require.ErrorIs(t, repo.UpdateGrade(ctx, 9999, 10, nil), gorm.ErrRecordNotFound)

	graded, err := repo.ListGradedByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	require.NotNil(t, graded[0].Assignment)
	require.Equal(t, "Biology", graded[0].Assignment.Subject)

	loaded, err := repo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Assignment)
	require.InDelta(t, 87.0, *loaded.Score, 0.001)
}

func TestSubmissionSiblingsSkipFileOnlyBeforeLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	assignment := seedAssignment(t, db, 100)
	base := time.Now().Add(-time.Hour)
	target := seedSubmission(t, db, assignment.ID, 1, "target", base)

	link := "https://files.example.edu/upload.txt"
	blank := "   "
	for i := 0; i < 3; i++ {
		fileOnly := models.Submission{AssignmentID: assignment.ID, StudentID: uint(10 + i), FileURL: &link, SubmittedAt: base.Add(time.Duration(i+1) * time.Second)}
		require.NoError(t, db.Create(&fileOnly).Error)
	}
	whitespace := models.Submission{AssignmentID: assignment.ID, StudentID: 20, TypedContent: &blank, SubmittedAt: base.Add(5 * time.Second)}
	require.NoError(t, db.Create(&whitespace).Error)
	typed := seedSubmission(t, db, assignment.ID, 30, "late typed answer", base.Add(time.Minute))

	siblings, err := repo.ListSiblings(ctx, assignment.ID, target.ID, 2)
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	require.Equal(t, typed.ID, siblings[0].ID)
}

func TestRoleRepositoryPrefersPrivilegedRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	role, err := repo.GetRole(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, role)

	require.NoError(t, repo.Assign(ctx, 5, "student"))
	require.NoError(t, repo.Assign(ctx, 5, "Faculty"))
	require.NoError(t, repo.Assign(ctx, 5, "faculty"))

	role, err = repo.GetRole(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, models.RoleFaculty, role)
}

func TestAssignmentListFiltersBySubject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	seedAssignment(t, db, 100)
	math := models.Assignment{Title: "Fractions", Subject: "Math", DueDate: time.Now(), MaxScore: 50, CreatedBy: 1}
	require.NoError(t, repo.Create(context.Background(), &math))

	items, total, err := repo.ListWithFilter(context.Background(), AssignmentFilter{Subject: "math"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Fractions", items[0].Title)

	_, err = repo.GetByID(context.Background(), 12345)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityLogListFiltersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	quizID := uint(3)
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 1, ActorRole: "faculty", Action: "quiz.generated", EntityType: "quiz", EntityID: &quizID}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 2, ActorRole: "admin", Action: "evaluation.completed", EntityType: "submission"}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 1, ActorRole: "faculty", Action: "evaluation.completed", EntityType: "submission"}))

	actor := uint(1)
	entries, total, err := repo.List(ctx, ActivityLogFilter{ActorID: &actor})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "evaluation.completed", entries[0].Action)

	entries, total, err = repo.List(ctx, ActivityLogFilter{Action: "evaluation.completed", Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, entries, 1)
	require.EqualValues(t, 2, entries[0].ActorID)
}
