package service

import (
	"context"
	"sort"
	"strings"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

// LearningPathNoDataMessage is returned when the caller has nothing graded yet.
const LearningPathNoDataMessage = "Not enough data yet. Complete some graded assignments to receive a personalized learning path."

const recentGradesPerSubject = 3

// LearningPathConfig tunes learning-path analysis.
type LearningPathConfig struct {
	Task TaskSettings
}

// LearningPathService recommends next steps from the caller's own results.
type LearningPathService interface {
	Analyze(ctx context.Context, actor pipeline.Actor) (dto.LearningPathResponse, error)
}

type learningPathResult struct {
	PerformanceGaps []dto.PerformanceGap `json:"performanceGaps"`
	Recommendations []dto.Recommendation `json:"recommendations"`
	Encouragement   string               `json:"encouragement"`
}

type learningPathService struct {
	submissions repository.SubmissionRepository
	grades      repository.GradeRepository
	deps        AIDependencies
	config      LearningPathConfig
}

// NewLearningPathService constructs the service.
func NewLearningPathService(submissions repository.SubmissionRepository, grades repository.GradeRepository, deps AIDependencies, cfg LearningPathConfig) LearningPathService {
	deps.Logger = deps.Logger.With().Str("component", "learning_path_service").Logger()
	return &learningPathService{
		submissions: submissions,
		grades:      grades,
		deps:        deps,
		config:      cfg,
	}
}

func (s *learningPathService) Analyze(ctx context.Context, actor pipeline.Actor) (dto.LearningPathResponse, error) {
	ctx, run := pipeline.Start(ctx, pipeline.EndpointLearningPath, s.deps.Logger)
	defer run.End()

	// Scoped to the caller, so any authenticated role may ask.
	if failure := run.Authorize(actor); failure != nil {
		return dto.LearningPathResponse{}, failure
	}

	run.Enter(pipeline.StageFetchingInput)
	graded, err := s.submissions.ListGradedByStudent(ctx, actor.UserID)
	if err != nil {
		return dto.LearningPathResponse{}, run.Fail(pipeline.KindInternal, pipeline.MessageInternal, err)
	}
	grades, err := s.grades.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return dto.LearningPathResponse{}, run.Fail(pipeline.KindInternal, pipeline.MessageInternal, err)
	}

	if len(graded) == 0 && len(grades) == 0 {
		run.Succeed()
		return dto.LearningPathResponse{
			PerformanceGaps: []dto.PerformanceGap{},
			Recommendations: []dto.Recommendation{},
			Message:         LearningPathNoDataMessage,
		}, nil
	}

	summary := summarizePerformance(graded, grades)

	subjects := make([]prompt.SubjectPerformance, 0, len(summary.Subjects))
	for _, subject := range summary.Subjects {
		subjects = append(subjects, prompt.SubjectPerformance(subject))
	}

	content, failure := callModel(ctx, run, s.deps.Gateway, prompt.LearningPath(subjects), s.config.Task)
	if failure != nil {
		return dto.LearningPathResponse{}, failure
	}

	var result learningPathResult
	if _, failure := extract(run, content, prompt.LearningPathSchema, &result); failure != nil {
		return dto.LearningPathResponse{}, failure
	}

	if result.PerformanceGaps == nil {
		result.PerformanceGaps = []dto.PerformanceGap{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []dto.Recommendation{}
	}

	s.deps.announce(ctx, actor, events.TypeLearningPath, "student", &actor.UserID, map[string]interface{}{
		"gap_count":            len(result.PerformanceGaps),
		"recommendation_count": len(result.Recommendations),
		"gpa":                  summary.GPA,
	})

	run.Succeed()
	return dto.LearningPathResponse{
		PerformanceGaps:    result.PerformanceGaps,
		Recommendations:    result.Recommendations,
		Encouragement:      strings.TrimSpace(result.Encouragement),
		PerformanceSummary: &summary,
	}, nil
}

// summarizePerformance averages graded submissions per subject as a percentage of each
// assignment's max score, attaches the most recent grade letters, and computes a
// credit-weighted GPA.
func summarizePerformance(graded []models.Submission, grades []models.Grade) dto.PerformanceSummary {
	type accumulator struct {
		total  float64
		count  int
		recent []string
	}
	bySubject := make(map[string]*accumulator)
	get := func(subject string) *accumulator {
		subject = strings.TrimSpace(subject)
		if bySubject[subject] == nil {
			bySubject[subject] = &accumulator{}
		}
		return bySubject[subject]
	}

	gradedCount := 0
	for _, submission := range graded {
		if submission.Score == nil || submission.Assignment == nil {
			continue
		}
		maxScore := submission.Assignment.MaxScore
		if maxScore <= 0 {
			maxScore = 100
		}
		acc := get(submission.Assignment.Subject)
		acc.total += clamp(*submission.Score/maxScore*100, 0, 100)
		acc.count++
		gradedCount++
	}

	var weighted, points float64
	credits := 0
	for _, grade := range grades {
		acc := get(grade.Subject)
		if len(acc.recent) < recentGradesPerSubject {
			acc.recent = append(acc.recent, grade.GradeLetter)
		}
		weighted += grade.GradePoints * float64(grade.Credits)
		points += grade.GradePoints
		credits += grade.Credits
	}

	gpa := 0.0
	switch {
	case credits > 0:
		gpa = weighted / float64(credits)
	case len(grades) > 0:
		gpa = points / float64(len(grades))
	}

	names := make([]string, 0, len(bySubject))
	for name := range bySubject {
		names = append(names, name)
	}
	sort.Strings(names)

	subjects := make([]dto.SubjectSummary, 0, len(names))
	for _, name := range names {
		acc := bySubject[name]
		average := 0.0
		if acc.count > 0 {
			average = round2(acc.total / float64(acc.count))
		}
		recent := acc.recent
		if recent == nil {
			recent = []string{}
		}
		subjects = append(subjects, dto.SubjectSummary{
			Subject:         name,
			AverageScore:    average,
			AssignmentCount: acc.count,
			RecentGrades:    recent,
		})
	}

	return dto.PerformanceSummary{
		Subjects:          subjects,
		GPA:               round2(gpa),
		TotalCredits:      credits,
		GradedAssignments: gradedCount,
	}
}
