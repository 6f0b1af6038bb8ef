package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
	"github.com/noah-isme/gema-academic-api/internal/repository"
	"github.com/noah-isme/gema-academic-api/pkg/ai"
)

// ErrQuizNotFound indicates the requested quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// QuizConfig holds quiz generation defaults.
type QuizConfig struct {
	Task             TaskSettings
	DefaultQuestions int
	TimeLimitMinutes int
}

// QuizService generates quizzes with the model and reads stored ones.
type QuizService interface {
	Generate(ctx context.Context, actor pipeline.Actor, payload dto.GenerateQuizRequest) (dto.GenerateQuizResponse, error)
	Get(ctx context.Context, id uint) (dto.QuizResponse, error)
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        float64  `json:"points"`
}

type quizService struct {
	quizzes repository.QuizRepository
	deps    AIDependencies
	config  QuizConfig
}

// NewQuizService constructs the quiz service.
func NewQuizService(quizzes repository.QuizRepository, deps AIDependencies, cfg QuizConfig) QuizService {
	if cfg.DefaultQuestions == 0 {
		cfg.DefaultQuestions = 5
	}
	if cfg.TimeLimitMinutes == 0 {
		cfg.TimeLimitMinutes = 30
	}
	deps.Logger = deps.Logger.With().Str("component", "quiz_service").Logger()

	return &quizService{quizzes: quizzes, deps: deps, config: cfg}
}

func (s *quizService) Generate(ctx context.Context, actor pipeline.Actor, payload dto.GenerateQuizRequest) (dto.GenerateQuizResponse, error) {
	ctx, run := pipeline.Start(ctx, pipeline.EndpointGenerateQuiz, s.deps.Logger)
	defer run.End()

	if failure := run.Authorize(actor, pipeline.StaffRoles...); failure != nil {
		return dto.GenerateQuizResponse{}, failure
	}

	run.Enter(pipeline.StageFetchingInput)
	if err := s.deps.Validator.Struct(payload); err != nil {
		return dto.GenerateQuizResponse{}, invalidInput(run, err)
	}

	topic := strings.TrimSpace(payload.Topic)
	subject := strings.TrimSpace(payload.Subject)
	count := payload.NumberOfQuestions
	if count == 0 {
		count = s.config.DefaultQuestions
	}

	content, failure := callModel(ctx, run, s.deps.Gateway, prompt.Quiz(prompt.QuizInput{
		Topic:   topic,
		Subject: subject,
		Count:   count,
	}), s.config.Task)
	if failure != nil {
		return dto.GenerateQuizResponse{}, failure
	}

	var generated []generatedQuestion
	if _, failure := extract(run, content, prompt.QuizSchema, &generated); failure != nil {
		return dto.GenerateQuizResponse{}, failure
	}

	questions, err := buildQuestions(generated)
	if err != nil {
		return dto.GenerateQuizResponse{}, run.FailWith(&ai.ErrInvalidResponse{Raw: content, Err: err})
	}

	run.Enter(pipeline.StagePersisting)
	description := fmt.Sprintf("AI-generated quiz about %s", topic)
	quiz := models.Quiz{
		Title:            fmt.Sprintf("%s Quiz", topic),
		Topic:            topic,
		Subject:          subject,
		Description:      &description,
		TimeLimitMinutes: s.config.TimeLimitMinutes,
		IsPublished:      false,
		CreatedBy:        actor.UserID,
	}

	if err := s.quizzes.CreateWithQuestions(ctx, &quiz, questions); err != nil {
		return dto.GenerateQuizResponse{}, run.Fail(pipeline.KindPersistence, "Failed to create quiz", err)
	}

	s.deps.announce(ctx, actor, events.TypeQuizGenerated, "quiz", &quiz.ID, map[string]interface{}{
		"quiz_id":        quiz.ID,
		"question_count": len(questions),
		"created_by":     actor.UserID,
	})

	run.Succeed()

	quiz.Questions = nil
	return dto.GenerateQuizResponse{
		Quiz:      dto.NewQuizResponse(quiz),
		Questions: dto.NewQuizQuestionResponseSlice(questions),
	}, nil
}

func (s *quizService) Get(ctx context.Context, id uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz), nil
}

// buildQuestions turns model output into rows. Every question needs distinct options
// and a correct answer that is one of them.
func buildQuestions(generated []generatedQuestion) ([]models.QuizQuestion, error) {
	questions := make([]models.QuizQuestion, 0, len(generated))
	for i, item := range generated {
		options := make([]string, len(item.Options))
		seen := make(map[string]struct{}, len(item.Options))
		for j, option := range item.Options {
			options[j] = strings.TrimSpace(option)
			key := strings.ToLower(options[j])
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("question %d repeats option %q", i+1, options[j])
			}
			seen[key] = struct{}{}
		}

		answer, ok := resolveCorrectAnswer(item.CorrectAnswer, options)
		if !ok {
			return nil, fmt.Errorf("question %d: correct answer %q is not one of its options", i+1, item.CorrectAnswer)
		}

		questions = append(questions, models.QuizQuestion{
			Question:      strings.TrimSpace(item.Question),
			Options:       models.StringList(options),
			CorrectAnswer: answer,
			Points:        questionPoints(item.Points),
			QuestionOrder: i,
		})
	}
	return questions, nil
}

// resolveCorrectAnswer maps a bare option letter ("B") to the option text.
func resolveCorrectAnswer(answer string, options []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	for _, option := range options {
		if option == answer {
			return answer, true
		}
	}

	letter := strings.ToUpper(strings.TrimSuffix(strings.TrimSuffix(answer, ")"), "."))
	if len(letter) == 1 && letter[0] >= 'A' && int(letter[0]-'A') < len(options) {
		return options[letter[0]-'A'], true
	}
	return "", false
}

func questionPoints(points float64) int {
	rounded := int(math.Round(points))
	if rounded <= 0 {
		return 1
	}
	return rounded
}
