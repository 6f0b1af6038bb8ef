package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

func TestSubmissionLifecycle(t *testing.T) {
	f := newFixture(t)
	validate := validator.New()
	assignments := NewAssignmentService(repository.NewAssignmentRepository(f.db), validate, zerolog.Nop())
	submissions := NewSubmissionService(repository.NewSubmissionRepository(f.db), repository.NewAssignmentRepository(f.db), storageFiles, validate, zerolog.Nop())
	ctx := context.Background()

	created, err := assignments.Create(ctx, faculty, dto.AssignmentCreateRequest{
		Title:   "Leaf Lab",
		Subject: "Biology",
		DueDate: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, faculty.UserID, created.CreatedBy)
	require.InDelta(t, 100.0, created.MaxScore, 0.001)

	_, err = submissions.Submit(ctx, student, dto.SubmissionCreateRequest{AssignmentID: created.ID})
	require.ErrorIs(t, err, ErrSubmissionContentRequired)

	_, err = submissions.Submit(ctx, student, dto.SubmissionCreateRequest{AssignmentID: 9999, TypedContent: strPtr("x")})
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	submitted, err := submissions.Submit(ctx, student, dto.SubmissionCreateRequest{AssignmentID: created.ID, TypedContent: strPtr("  my answer  ")})
	require.NoError(t, err)
	require.Equal(t, student.UserID, submitted.StudentID)
	require.True(t, submitted.IsLate)
	require.Equal(t, "my answer", *submitted.TypedContent)

	_, err = submissions.Get(ctx, pipeline.Actor{UserID: 999, Role: "student"}, submitted.ID)
	require.ErrorIs(t, err, ErrSubmissionForbidden)

	own, err := submissions.Get(ctx, student, submitted.ID)
	require.NoError(t, err)
	require.NotNil(t, own.Assignment)

	_, err = submissions.Grade(ctx, submitted.ID, dto.SubmissionGradeRequest{Score: floatPtr(120)})
	require.ErrorIs(t, err, ErrScoreOutOfRange)

	graded, err := submissions.Grade(ctx, submitted.ID, dto.SubmissionGradeRequest{Score: floatPtr(88), Feedback: strPtr("Nice work")})
	require.NoError(t, err)
	require.InDelta(t, 88.0, *graded.Score, 0.001)

	_, err = submissions.Grade(ctx, 4242, dto.SubmissionGradeRequest{Score: floatPtr(10)})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	list, total, err := assignments.List(ctx, dto.AssignmentFilter{Subject: "biology"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	_, err = assignments.Get(ctx, 4242)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitRejectsFileURLsOutsideStorage(t *testing.T) {
	f := newFixture(t)
	submissions := NewSubmissionService(repository.NewSubmissionRepository(f.db), repository.NewAssignmentRepository(f.db), storageFiles, validator.New(), zerolog.Nop())
	assignment := f.assignment(t, 100)
	ctx := context.Background()

	for _, link := range []string{
		"http://127.0.0.1:41469/latest/meta-data",
		"https://169.254.169.254/latest/meta-data",
		"http://files.example.edu/essay.txt",
		"https://attacker.example.net/essay.txt",
	} {
		_, err := submissions.Submit(ctx, student, dto.SubmissionCreateRequest{AssignmentID: assignment.ID, FileURL: strPtr(link)})
		require.ErrorIs(t, err, ErrFileURLNotAllowed, link)
	}
	require.Zero(t, f.count(t, &models.Submission{}))

	accepted, err := submissions.Submit(ctx, student, dto.SubmissionCreateRequest{AssignmentID: assignment.ID, FileURL: strPtr("https://files.example.edu/essay.txt")})
	require.NoError(t, err)
	require.Equal(t, "https://files.example.edu/essay.txt", *accepted.FileURL)
}

func strPtr(v string) *string {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
