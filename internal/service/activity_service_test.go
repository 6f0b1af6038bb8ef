package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

type activityRepoStub struct {
	entries []models.ActivityLog
	filter  repository.ActivityLogFilter
	err     error
}

func (r *activityRepoStub) Create(_ context.Context, entry *models.ActivityLog) error {
	if r.err != nil {
		return r.err
	}
	entry.ID = uint(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *activityRepoStub) List(_ context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	r.filter = filter
	return r.entries, int64(len(r.entries)), r.err
}

func TestActivityRecordNormalizesAndMasks(t *testing.T) {
	repo := &activityRepoStub{}
	svc := NewActivityService(repo, validator.New(), zerolog.Nop())

	entityID := uint(5)
	err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    9,
		Action:     " Evaluation.Completed ",
		EntityType: "Submission",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"student_email": "a@b.c", "suggested_score": 80.0},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, "system", entry.ActorRole)
	require.Equal(t, "evaluation.completed", entry.Action)
	require.Equal(t, "submission", entry.EntityType)
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, 80.0, entry.Metadata["suggested_score"])
}

func TestActivityRecordRequiresActionAndEntity(t *testing.T) {
	svc := NewActivityService(&activityRepoStub{}, validator.New(), zerolog.Nop())

	require.Error(t, svc.Record(context.Background(), ActivityEntry{EntityType: "quiz"}))
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Action: "quiz.generated"}))
}

func TestActivityListPaginates(t *testing.T) {
	repo := &activityRepoStub{}
	svc := NewActivityService(repo, validator.New(), zerolog.Nop())
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(context.Background(), ActivityEntry{ActorID: 1, ActorRole: "admin", Action: "quiz.generated", EntityType: "quiz"}))
	}

	items, meta, err := svc.List(context.Background(), dto.ActivityListRequest{PageSize: 2, ActorID: 1, Action: "Quiz.Generated"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, 2, meta.TotalPages)
	require.EqualValues(t, 3, meta.TotalItems)
	require.Equal(t, "quiz.generated", repo.filter.Action)
	require.NotNil(t, repo.filter.ActorID)

	_, _, err = svc.List(context.Background(), dto.ActivityListRequest{PageSize: 500})
	require.Error(t, err)
}

func TestAnnounceToleratesRecorderFailure(t *testing.T) {
	f := newFixture(t, `[{"title":"Essay","description":"Write","max_score":20}]`)
	f.drafts = NewAssignmentGenerationService(AIDependencies{
		Gateway:   f.gateway,
		Publisher: f.publisher,
		Activity:  NewActivityService(&activityRepoStub{err: errors.New("disk full")}, validator.New(), zerolog.Nop()),
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}, AssignmentGenerationConfig{})

	drafts, err := f.drafts.Generate(context.Background(), faculty, dto.GenerateAssignmentsRequest{Syllabus: "Unit 1", Subject: "History"})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}
